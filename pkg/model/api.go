// Package model holds the JSON payloads of the HTTP API.
package model

import "purifygate/pkg/purifier"

type CheckRequest struct {
	Text string `json:"text"`
}

type CheckResponse struct {
	Banned bool `json:"banned"`
}

type ScanRequest struct {
	Text string `json:"text"`
}

type ScanResponse struct {
	Spans []purifier.Span `json:"spans"`
}

// PurifyRequest masks Text. Mask is a literal replacement and wins over
// MaskChar; MatchSize defaults to true when MaskChar is used.
type PurifyRequest struct {
	Text      string `json:"text"`
	Mask      string `json:"mask,omitempty"`
	MaskChar  string `json:"mask_char,omitempty"`
	MatchSize *bool  `json:"match_size,omitempty"`
}

type PurifyResponse struct {
	Text    string `json:"text"`
	Matches int    `json:"matches"`
}

type WordsRequest struct {
	Words []string `json:"words"`
}

type WordsResponse struct {
	Count   int      `json:"count"`
	Sources []string `json:"sources,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
