// Package junitxml parses JUnit-style XML result files into execution
// records. It accepts both a bare <testsuite> root and a <testsuites>
// wrapper and collects every <testcase> element regardless of nesting.
package junitxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum-optimism/infra/testman-sync/types"
)

// testCase mirrors a single <testcase> element. Exactly one of the child
// outcome elements is expected; a case with none of them passed.
type testCase struct {
	ClassName string   `xml:"classname,attr"`
	Name      string   `xml:"name,attr"`
	Time      string   `xml:"time,attr"`
	File      string   `xml:"file,attr"`
	Line      string   `xml:"line,attr"`
	Skipped   *outcome `xml:"skipped"`
	Failure   *outcome `xml:"failure"`
	Error     *outcome `xml:"error"`
}

type outcome struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// Parse reads a JUnit XML document and returns one execution record per
// <testcase> element, in document order. Malformed XML fails the whole
// parse; there is no partial recovery.
func Parse(r io.Reader) ([]types.ExecutionRecord, error) {
	dec := xml.NewDecoder(r)
	var records []types.ExecutionRecord
	sawElement := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed results file: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		sawElement = true
		if start.Name.Local != "testcase" {
			continue
		}
		var tc testCase
		if err := dec.DecodeElement(&tc, &start); err != nil {
			return nil, fmt.Errorf("malformed results file: %w", err)
		}
		records = append(records, tc.record())
	}
	// The tokenizer swallows non-XML input as character data, so a document
	// without a single element is junk, not an empty report.
	if !sawElement {
		return nil, fmt.Errorf("malformed results file: no XML root element")
	}
	return records, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string) ([]types.ExecutionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Summarize counts the parsed records per execution status.
func Summarize(records []types.ExecutionRecord) types.Summary {
	summary := types.Summary{}
	for _, rec := range records {
		summary.Add(rec.Status)
	}
	return summary
}

// record derives the execution record for the test case. When multiple
// outcome elements are present, skipped wins over failure, which wins over
// error.
func (tc testCase) record() types.ExecutionRecord {
	rec := types.ExecutionRecord{
		ClassName: tc.ClassName,
		Name:      tc.Name,
		Status:    types.StatusPassed,
		Time:      tc.Time,
		File:      tc.File,
		Line:      tc.Line,
	}
	var o *outcome
	switch {
	case tc.Skipped != nil:
		rec.Status, o = types.StatusSkipped, tc.Skipped
	case tc.Failure != nil:
		rec.Status, o = types.StatusFailure, tc.Failure
	case tc.Error != nil:
		rec.Status, o = types.StatusError, tc.Error
	}
	if o != nil {
		rec.Message = o.Message
		rec.Type = o.Type
	}
	return rec
}
