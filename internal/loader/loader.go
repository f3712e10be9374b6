// Package loader reads popolo documents from local files or remote
// locations and writes them back out.
package loader

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-getter"
	"github.com/xeipuuv/gojsonschema"

	"popolo/internal/logger"
	"popolo/internal/popolo"
)

var ErrInvalidShape = errors.New("invalid popolo document")

// ShapeError lists every structural problem found in a document.
type ShapeError struct {
	Problems []string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidShape, strings.Join(e.Problems, "; "))
}

func (e *ShapeError) Is(target error) bool { return target == ErrInvalidShape }

//go:embed shape.json
var shapeJSON []byte

var shapeSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(shapeJSON))
})

// Decode reads one JSON document and checks that it has the popolo root
// shape: an object whose collection keys, when present, hold lists of
// objects.
func Decode(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading popolo json")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding popolo json")
	}

	schema, err := shapeSchema()
	if err != nil {
		return nil, errors.Wrap(err, "compiling popolo shape schema")
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "checking popolo shape")
	}
	if !result.Valid() {
		shapeErr := &ShapeError{}
		for _, desc := range result.Errors() {
			shapeErr.Problems = append(shapeErr.Problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return nil, shapeErr
	}

	data, ok := doc.(map[string]any)
	if !ok {
		return nil, &ShapeError{Problems: []string{fmt.Sprintf("(root): expected object, got %T", doc)}}
	}
	return data, nil
}

// Parse decodes raw JSON into an aggregate.
func Parse(raw []byte) (*popolo.Popolo, error) {
	data, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return popolo.FromData(data)
}

func FromFile(path string) (*popolo.Popolo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	data, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	p, err := popolo.FromData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return p, nil
}

// FromURL fetches a remote document through go-getter, so http(s), s3 and
// gcs locations all work.
func FromURL(ctx context.Context, rawURL string) (*popolo.Popolo, error) {
	start := time.Now()
	tempDir, err := os.MkdirTemp("", "popolo-fetch-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating temp directory")
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, "ep-popolo.json")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     rawURL,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}

	logger.Logger.Debugw("fetching popolo source", logger.FieldSource, rawURL)
	if err := client.Get(); err != nil {
		return nil, errors.Wrapf(err, "fetching %s", rawURL)
	}

	p, err := FromFile(dst)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", rawURL)
	}
	logger.Logger.Infow("fetched popolo source",
		logger.FieldSource, rawURL,
		logger.FieldCount, p.Persons.Len(),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return p, nil
}

// Load accepts a local path, a file:// URL or anything go-getter can
// detect as remote.
func Load(ctx context.Context, location string) (*popolo.Popolo, error) {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(location, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(err, "detecting source type of %s", location)
	}

	u, err := url.Parse(detected)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing detected source %s", detected)
	}
	if u.Scheme == "file" || u.Scheme == "" {
		path := location
		if u.Scheme == "file" {
			path = u.Path
		}
		return FromFile(path)
	}
	return FromURL(ctx, detected)
}

// WriteFile writes the aggregate as indented JSON.
func WriteFile(path string, p *popolo.Popolo) error {
	out, err := p.ToJSON()
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
