package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"purifygate/pkg/config"
	"purifygate/pkg/control"
	"purifygate/pkg/purifier"
	"purifygate/pkg/wordlist"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func wordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "words",
			Aliases: []string{"w"},
			Usage:   "word file, one word per line (overrides purifier.words_file)",
		},
		&cli.StringSliceFlag{
			Name:  "word",
			Usage: "banned word, may be repeated",
		},
	}
}

func cmdPurify() *cli.Command {
	return &cli.Command{
		Name:      "purify",
		Usage:     "Mask banned words in each line of stdin or in the given text",
		ArgsUsage: "[text...]",
		Flags: append(wordFlags(),
			&cli.StringFlag{Name: "mask", Usage: "literal mask, wins over --mask-char"},
			&cli.StringFlag{Name: "mask-char", Usage: "mask character"},
			&cli.BoolFlag{Name: "match-size", Usage: "repeat the mask character to the match length", Value: true},
			&cli.StringFlag{Name: "strategy", Usage: "masking strategy: rebuild or legacy"},
		),
		Action: func(c *cli.Context) error {
			cfg, p, err := loadPurifier(c)
			if err != nil {
				return err
			}
			params := map[string]string{}
			if c.IsSet("mask") {
				params["mask"] = c.String("mask")
			}
			if c.IsSet("mask-char") {
				params["mask_char"] = c.String("mask-char")
			}
			if c.IsSet("match-size") {
				params["match_size"] = fmt.Sprint(c.Bool("match-size"))
			}
			def, err := control.DefaultMask(cfg.Purifier)
			if err != nil {
				return err
			}
			mask, err := control.MaskFromParams(params, def)
			if err != nil {
				return err
			}

			return eachLine(c, func(line string) error {
				_, err := fmt.Fprintln(c.App.Writer, p.Purify(line, mask))
				return err
			})
		},
	}
}

func cmdCheck() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report whether each line contains a banned word; exits 1 if any does",
		ArgsUsage: "[text...]",
		Flags:     wordFlags(),
		Action: func(c *cli.Context) error {
			_, p, err := loadPurifier(c)
			if err != nil {
				return err
			}
			banned := false
			err = eachLine(c, func(line string) error {
				hit := p.Check(line)
				banned = banned || hit
				_, err := fmt.Fprintf(c.App.Writer, "%t\t%s\n", hit, line)
				return err
			})
			if err != nil {
				return err
			}
			if banned {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func cmdScan() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Print the match spans of each line as JSON",
		ArgsUsage: "[text...]",
		Flags:     wordFlags(),
		Action: func(c *cli.Context) error {
			_, p, err := loadPurifier(c)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			return eachLine(c, func(line string) error {
				spans := p.Scan(line)
				if spans == nil {
					spans = []purifier.Span{}
				}
				return enc.Encode(spans)
			})
		},
	}
}

// loadPurifier builds a purifier from the config plus --words/--word.
func loadPurifier(c *cli.Context) (*config.Config, *purifier.Purifier, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("strategy") {
		cfg.Purifier.Strategy = c.String("strategy")
	}
	if c.IsSet("words") {
		cfg.Purifier.WordsFile = c.String("words")
	}

	p := purifier.New(purifier.WithStrategy(purifier.ParseStrategy(cfg.Purifier.Strategy)))
	sources := control.NewWordSources(p)
	sources.Set(control.SourceConfig, append(cfg.Purifier.Words, c.StringSlice("word")...))
	if cfg.Purifier.WordsFile != "" {
		words, err := wordlist.LoadFile(cfg.Purifier.WordsFile)
		if err != nil {
			return nil, nil, err
		}
		sources.Set(control.SourceFile, words)
	}
	if p.Len() == 0 {
		return nil, nil, errors.New("no banned words: use --words, --word or purifier.words_file")
	}
	return cfg, p, nil
}

// eachLine calls fn for the joined arguments, or for every line of stdin
// when there are none.
func eachLine(c *cli.Context, fn func(string) error) error {
	if c.Args().Present() {
		return fn(strings.Join(c.Args().Slice(), " "))
	}
	return scanLines(c.App.Reader, fn)
}

func scanLines(r io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	return errors.Wrap(sc.Err(), "read input")
}
