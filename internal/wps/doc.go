// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package wps models OGC WPS 1.0 XML documents. The decode types in this
// file match elements by local name so they accept any namespace prefix a
// remote server uses; the encode types in encode.go emit the prefixed form
// expected by OGC clients.
package wps

import "encoding/xml"

// Format is a {mimeType, encoding, schema} tuple of a complex data format.
type Format struct {
	MimeType string `xml:"MimeType"`
	Encoding string `xml:"Encoding,omitempty"`
	Schema   string `xml:"Schema,omitempty"`
}

// DataType carries the literal type name plus its OWS reference URI.
type DataType struct {
	Name      string `xml:",chardata"`
	Reference string `xml:"reference,attr,omitempty"`
}

// Range bounds a literal domain.
type Range struct {
	MinimumValue string `xml:"MinimumValue,omitempty"`
	MaximumValue string `xml:"MaximumValue,omitempty"`
}

// AllowedValues restricts a literal domain by explicit values and/or ranges.
type AllowedValues struct {
	Values []string `xml:"Value"`
	Ranges []Range  `xml:"Range"`
}

// LiteralInput describes a literal input domain.
type LiteralInput struct {
	DataType      *DataType      `xml:"DataType"`
	AllowedValues *AllowedValues `xml:"AllowedValues"`
	AnyValue      *struct{}      `xml:"AnyValue"`
	DefaultValue  string         `xml:"DefaultValue"`
	UOMs          []string       `xml:"UOMs>Supported>UOM"`
}

// ComplexData describes the default and supported formats of a complex I/O.
type ComplexData struct {
	MaximumMegabytes int      `xml:"maximumMegabytes,attr,omitempty"`
	Default          *struct {
		Format Format `xml:"Format"`
	} `xml:"Default"`
	Supported []Format `xml:"Supported>Format"`
}

// BoundingBoxData describes a bounding-box I/O by its CRS list.
type BoundingBoxData struct {
	Default   string   `xml:"Default>CRS"`
	Supported []string `xml:"Supported>CRS"`
}

// InputDescription is one DataInputs/Input element.
type InputDescription struct {
	MinOccurs       string           `xml:"minOccurs,attr"`
	MaxOccurs       string           `xml:"maxOccurs,attr"`
	Identifier      string           `xml:"Identifier"`
	Title           string           `xml:"Title"`
	Abstract        string           `xml:"Abstract"`
	LiteralData     *LiteralInput    `xml:"LiteralData"`
	ComplexData     *ComplexData     `xml:"ComplexData"`
	BoundingBoxData *BoundingBoxData `xml:"BoundingBoxData"`
}

// OutputDescription is one ProcessOutputs/Output element.
type OutputDescription struct {
	Identifier        string           `xml:"Identifier"`
	Title             string           `xml:"Title"`
	Abstract          string           `xml:"Abstract"`
	LiteralOutput     *LiteralInput    `xml:"LiteralOutput"`
	ComplexOutput     *ComplexData     `xml:"ComplexOutput"`
	BoundingBoxOutput *BoundingBoxData `xml:"BoundingBoxOutput"`
}

// ProcessDescription is one deployed process as described by WPS-1.
type ProcessDescription struct {
	ProcessVersion  string              `xml:"processVersion,attr"`
	StoreSupported  bool                `xml:"storeSupported,attr"`
	StatusSupported bool                `xml:"statusSupported,attr"`
	Identifier      string              `xml:"Identifier"`
	Title           string              `xml:"Title"`
	Abstract        string              `xml:"Abstract"`
	Inputs          []InputDescription  `xml:"DataInputs>Input"`
	Outputs         []OutputDescription `xml:"ProcessOutputs>Output"`
}

// ProcessDescriptions is the DescribeProcess response root.
type ProcessDescriptions struct {
	XMLName   xml.Name             `xml:"ProcessDescriptions"`
	Version   string               `xml:"version,attr"`
	Processes []ProcessDescription `xml:"ProcessDescription"`
}

// ProcessBrief is one Process element of a capabilities offering.
type ProcessBrief struct {
	ProcessVersion string `xml:"processVersion,attr"`
	Identifier     string `xml:"Identifier"`
	Title          string `xml:"Title"`
	Abstract       string `xml:"Abstract"`
}

// Capabilities is the GetCapabilities response root.
type Capabilities struct {
	XMLName   xml.Name       `xml:"Capabilities"`
	Version   string         `xml:"version,attr"`
	Title     string         `xml:"ServiceIdentification>Title"`
	Abstract  string         `xml:"ServiceIdentification>Abstract"`
	Provider  string         `xml:"ServiceProvider>ProviderName"`
	Processes []ProcessBrief `xml:"ProcessOfferings>Process"`
}

// StatusInfo is the Status element of an ExecuteResponse. Exactly one of the
// state elements is present; percent completed rides on ProcessStarted.
type StatusInfo struct {
	CreationTime     string          `xml:"creationTime,attr"`
	ProcessAccepted  *StatusDetail   `xml:"ProcessAccepted"`
	ProcessStarted   *StatusDetail   `xml:"ProcessStarted"`
	ProcessPaused    *StatusDetail   `xml:"ProcessPaused"`
	ProcessSucceeded *StatusDetail   `xml:"ProcessSucceeded"`
	ProcessFailed    *ProcessFailure `xml:"ProcessFailed"`
}

// StatusDetail is the message body of a non-failure state.
type StatusDetail struct {
	PercentCompleted int    `xml:"percentCompleted,attr"`
	Message          string `xml:",chardata"`
}

// ProcessFailure wraps the exception report of a failed execution.
type ProcessFailure struct {
	ExceptionReport *ExceptionReport `xml:"ExceptionReport"`
}

// Exception is one OWS exception entry.
type Exception struct {
	Code    string   `xml:"exceptionCode,attr"`
	Locator string   `xml:"locator,attr"`
	Texts   []string `xml:"ExceptionText"`
}

// ExceptionReport is the OWS error document.
type ExceptionReport struct {
	XMLName    xml.Name    `xml:"ExceptionReport"`
	Version    string      `xml:"version,attr"`
	Exceptions []Exception `xml:"Exception"`
}

// Reference points an output at a downloadable location.
type Reference struct {
	Href     string `xml:"href,attr"`
	MimeType string `xml:"mimeType,attr"`
	Encoding string `xml:"encoding,attr"`
	Schema   string `xml:"schema,attr"`
}

// OutputData is one produced output inside an ExecuteResponse.
type OutputData struct {
	Identifier string     `xml:"Identifier"`
	Title      string     `xml:"Title"`
	Reference  *Reference `xml:"Reference"`
	Literal    *struct {
		DataType string `xml:"dataType,attr"`
		Value    string `xml:",chardata"`
	} `xml:"Data>LiteralData"`
	Complex *struct {
		MimeType string `xml:"mimeType,attr"`
		Encoding string `xml:"encoding,attr"`
		Value    string `xml:",innerxml"`
	} `xml:"Data>ComplexData"`
}

// ExecuteResponse is the Execute response / status document root.
type ExecuteResponse struct {
	XMLName           xml.Name     `xml:"ExecuteResponse"`
	StatusLocation    string       `xml:"statusLocation,attr"`
	ProcessIdentifier string       `xml:"Process>Identifier"`
	Status            StatusInfo   `xml:"Status"`
	Outputs           []OutputData `xml:"ProcessOutputs>Output"`
}
