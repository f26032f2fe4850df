/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package wire

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeRow decodes one named-mode row (a column-name-keyed map, as
// produced when a request was sent with terse=false) into out, matching
// struct fields by the column name via mapstructure's "mapstructure" tag
// convention, the same one ColumnDescriptor carries for terse-mode
// metadata.
func DecodeRow(row map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(row)
}

// DecodeRows decodes every row of a QueryResult's Data into a fresh out
// slice. outFactory returns a new zero-value target for each row (e.g.
// `func() interface{} { return &Employee{} }`); DecodeRows appends the
// decoded pointer to the returned slice, preserving row order.
func DecodeRows(rows []map[string]interface{}, outFactory func() interface{}) ([]interface{}, error) {
	decoded := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		target := outFactory()
		if err := DecodeRow(row, target); err != nil {
			return nil, err
		}
		decoded = append(decoded, target)
	}
	return decoded, nil
}

// DecodeTerseRow decodes one terse-mode row (a positional value array, as
// produced when a request was sent with terse=true) into out. columns
// supplies the names DecodeRow would otherwise read from map keys, zipped
// with row by position, so it must be the same Metadata.Columns the
// response carried alongside the row.
func DecodeTerseRow(row []interface{}, columns []ColumnDescriptor, out interface{}) error {
	if len(columns) != len(row) {
		return fmt.Errorf("wire: terse row has %d values, metadata describes %d columns", len(row), len(columns))
	}

	named := make(map[string]interface{}, len(row))
	for i, col := range columns {
		named[col.Name] = row[i]
	}
	return DecodeRow(named, out)
}

// DecodeTerseRows decodes every row of a QueryResult's TerseData into a
// fresh out slice, pairing each row with columns by position. See
// DecodeTerseRow.
func DecodeTerseRows(rows [][]interface{}, columns []ColumnDescriptor, outFactory func() interface{}) ([]interface{}, error) {
	decoded := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		target := outFactory()
		if err := DecodeTerseRow(row, columns, target); err != nil {
			return nil, err
		}
		decoded = append(decoded, target)
	}
	return decoded, nil
}
