package workload

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/kaz/kaltstart/imports"
	"github.com/parquet-go/parquet-go"
	"gonum.org/v1/gonum/floats"
)

const (
	ModuleBase64  = "base64"
	ModuleJSON    = "json"
	ModuleTime    = "time"
	ModuleNumeric = "gonum"
	ModuleTabular = "gota"
	ModuleParquet = "parquet"
)

type (
	// modules holds the handle each recorded load produced.
	modules struct {
		encoding *base64.Encoding
		location *time.Location
		schema   *parquet.Schema
	}

	module struct {
		id   string
		load imports.Loader
	}
)

func moduleLoaders() []module {
	return []module{
		{ModuleBase64, func() (interface{}, error) {
			return base64.StdEncoding, nil
		}},
		{ModuleJSON, func() (interface{}, error) {
			if _, err := json.Marshal(&Order{}); err != nil {
				return nil, fmt.Errorf("json.Marshal failed: %w", err)
			}
			return nil, nil
		}},
		{ModuleTime, func() (interface{}, error) {
			return time.LoadLocation("UTC")
		}},
		{ModuleNumeric, func() (interface{}, error) {
			return floats.Sum([]float64{0}), nil
		}},
		{ModuleTabular, func() (interface{}, error) {
			df := dataframe.LoadStructs([]Order{{}})
			if df.Err != nil {
				return nil, fmt.Errorf("dataframe.LoadStructs failed: %w", df.Err)
			}
			return df.Names(), nil
		}},
		{ModuleParquet, func() (interface{}, error) {
			return parquet.SchemaOf(new(Order)), nil
		}},
	}
}

// loadModules records every module in import order and collects the handles
// the handler needs.
func loadModules(rec *imports.Recorder) (*modules, error) {
	mods := &modules{}
	for _, m := range moduleLoaders() {
		handle, err := rec.Record(m.id, m.load)
		if err != nil {
			return nil, fmt.Errorf("Recorder.Record failed: %w", err)
		}

		switch h := handle.(type) {
		case *base64.Encoding:
			mods.encoding = h
		case *time.Location:
			mods.location = h
		case *parquet.Schema:
			mods.schema = h
		}
	}
	return mods, nil
}
