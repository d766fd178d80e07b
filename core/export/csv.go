// Package export serializes report rows to CSV with localized column headers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var timeType = reflect.TypeOf(time.Time{})

type column struct {
	key   string
	index int
}

// columns lists the exported fields of `t`. The column key is the `csv` tag, else the `json` tag name,
// else the field name. Fields tagged `csv:"-"` are skipped.
func columns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		key := f.Tag.Get("csv")
		if key == "" {
			key = strings.Split(f.Tag.Get("json"), ",")[0]
		}
		if key == "-" {
			continue
		}
		if key == "" {
			key = f.Name
		}
		cols = append(cols, column{key: key, index: i})
	}
	return cols
}

func formatValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v.Interface())
	}
}

// WriteCSV writes `rows`, a slice of structs, as CSV: one header row of labels followed by one record per row.
// `label` maps each column key to its header; a nil `label` keeps the keys.
func WriteCSV(w io.Writer, rows interface{}, label func(key string) string) error {
	rv := reflect.ValueOf(rows)
	if rv.Kind() != reflect.Slice {
		return errors.Errorf("export.WriteCSV: expected a slice, got %T", rows)
	}
	et := rv.Type().Elem()
	if et.Kind() == reflect.Ptr {
		et = et.Elem()
	}
	if et.Kind() != reflect.Struct {
		return errors.Errorf("export.WriteCSV: expected a slice of structs, got %T", rows)
	}
	if label == nil {
		label = func(key string) string { return key }
	}

	cols := columns(et)
	cw := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = label(col.key)
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}

	record := make([]string, len(cols))
	for i := 0; i < rv.Len(); i++ {
		row := rv.Index(i)
		if row.Kind() == reflect.Ptr {
			if row.IsNil() {
				continue
			}
			row = row.Elem()
		}
		for j, col := range cols {
			record[j] = formatValue(row.Field(col.index))
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing CSV")
}
