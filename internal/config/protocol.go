package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/speechtasker/internal/model"
)

// Protocol is a reusable recipe for building a matrix from a sentence bank.
type Protocol struct {
	Name             string    `yaml:"name"`
	SentenceFile     string    `yaml:"sentence_file"`
	Lists            []int     `yaml:"lists"`
	SentencesPerList int       `yaml:"sentences_per_list"`
	Levels           []float64 `yaml:"levels"`
	Speakers         []int     `yaml:"speakers"`
	// Presentations is nil when omitted.
	Presentations *int   `yaml:"presentations"`
	Randomize     bool   `yaml:"randomize"`
	Seed          *int64 `yaml:"seed"`
}

// LoadProtocol reads and validates the protocol file at path. A relative
// sentence_file is resolved against the protocol's directory.
func LoadProtocol(path string) (*Protocol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("protocol: open %q: %w", path, err)
	}
	defer f.Close()

	p, err := LoadProtocolFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("protocol: parse %q: %w", path, err)
	}
	if p.SentenceFile != "" && !filepath.IsAbs(p.SentenceFile) {
		p.SentenceFile = filepath.Join(filepath.Dir(path), p.SentenceFile)
	}
	return p, nil
}

// LoadProtocolFromReader decodes a YAML protocol from r and validates it.
func LoadProtocolFromReader(r io.Reader) (*Protocol, error) {
	p := &Protocol{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("protocol: decode yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every problem with p as a joined error.
func (p *Protocol) Validate() error {
	var errs []error
	if p.SentenceFile == "" {
		errs = append(errs, errors.New("sentence_file is required"))
	}
	if len(p.Lists) == 0 {
		errs = append(errs, errors.New("lists must name at least one list"))
	}
	seen := make(map[int]bool, len(p.Lists))
	for i, l := range p.Lists {
		if seen[l] {
			errs = append(errs, fmt.Errorf("lists[%d] %d is a duplicate", i, l))
		}
		seen[l] = true
	}
	if p.SentencesPerList < 1 {
		errs = append(errs, fmt.Errorf("sentences_per_list %d must be >= 1", p.SentencesPerList))
	}
	if p.Presentations != nil && *p.Presentations < 1 {
		errs = append(errs, fmt.Errorf("presentations %d must be >= 1", *p.Presentations))
	}
	if n := len(p.Levels); n != 1 && n != len(p.Lists) {
		errs = append(errs, fmt.Errorf("levels has %d values; want 1 or one per list (%d)", n, len(p.Lists)))
	}
	if n := len(p.Speakers); n != 1 && n != len(p.Lists) {
		errs = append(errs, fmt.Errorf("speakers has %d values; want 1 or one per list (%d)", n, len(p.Lists)))
	}
	return errors.Join(errs...)
}

// CreateParams converts p into builder parameters. Omitted presentations
// become 1.
func (p *Protocol) CreateParams() model.CreateParams {
	presentations := 1
	if p.Presentations != nil {
		presentations = *p.Presentations
	}
	return model.CreateParams{
		SentenceFile:     p.SentenceFile,
		Lists:            append([]int(nil), p.Lists...),
		SentencesPerList: p.SentencesPerList,
		Levels:           append([]float64(nil), p.Levels...),
		Speakers:         append([]int(nil), p.Speakers...),
		Presentations:    presentations,
		Randomize:        p.Randomize,
		Seed:             p.Seed,
	}
}
