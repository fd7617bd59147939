// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wps

import (
	"encoding/xml"
	"fmt"
	"os"
)

// WriteStatusDocument atomically writes an execute response document to the
// output volume, so status pollers never observe a half-written file.
func WriteStatusDocument(path string, resp *ExecuteResponseXML) error {
	body, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode status document: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("cannot write status document %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cannot publish status document %s: %w", path, err)
	}
	return nil
}
