// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wps

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/geoflow/geoflow/internal/model"
)

// OGC namespace URIs emitted on response roots.
const (
	NamespaceWPS   = "http://www.opengis.net/wps/1.0.0"
	NamespaceOWS   = "http://www.opengis.net/ows/1.1"
	NamespaceXLink = "http://www.w3.org/1999/xlink"
)

// ServiceVersion is the only WPS protocol version served.
const ServiceVersion = "1.0.0"

// ExceptionReportXML is the emitted form of an OWS exception report.
type ExceptionReportXML struct {
	XMLName  xml.Name       `xml:"ows:ExceptionReport"`
	XMLNSOWS string         `xml:"xmlns:ows,attr"`
	Version  string         `xml:"version,attr"`
	Entries  []ExceptionXML `xml:"ows:Exception"`
}

// ExceptionXML is one emitted OWS exception.
type ExceptionXML struct {
	Code    string   `xml:"exceptionCode,attr"`
	Locator string   `xml:"locator,attr,omitempty"`
	Texts   []string `xml:"ows:ExceptionText"`
}

// NewExceptionReport builds a single-entry exception report document.
func NewExceptionReport(code, locator string, texts ...string) *ExceptionReportXML {
	return &ExceptionReportXML{
		XMLNSOWS: NamespaceOWS,
		Version:  ServiceVersion,
		Entries:  []ExceptionXML{{Code: code, Locator: locator, Texts: texts}},
	}
}

// ProcessBriefXML is a process entry in capabilities and execute responses.
type ProcessBriefXML struct {
	ProcessVersion string `xml:"wps:processVersion,attr,omitempty"`
	Identifier     string `xml:"ows:Identifier"`
	Title          string `xml:"ows:Title"`
	Abstract       string `xml:"ows:Abstract,omitempty"`
}

// CapabilitiesXML is the emitted GetCapabilities response.
type CapabilitiesXML struct {
	XMLName      xml.Name          `xml:"wps:Capabilities"`
	XMLNSWPS     string            `xml:"xmlns:wps,attr"`
	XMLNSOWS     string            `xml:"xmlns:ows,attr"`
	XMLNSXLink   string            `xml:"xmlns:xlink,attr"`
	Service      string            `xml:"service,attr"`
	Version      string            `xml:"version,attr"`
	Title        string            `xml:"ows:ServiceIdentification>ows:Title"`
	Abstract     string            `xml:"ows:ServiceIdentification>ows:Abstract,omitempty"`
	ProviderName string            `xml:"ows:ServiceProvider>ows:ProviderName"`
	Processes    []ProcessBriefXML `xml:"wps:ProcessOfferings>wps:Process"`
}

// NewCapabilities builds an empty capabilities document with the fixed
// service attributes filled in.
func NewCapabilities(title, provider string) *CapabilitiesXML {
	return &CapabilitiesXML{
		XMLNSWPS:     NamespaceWPS,
		XMLNSOWS:     NamespaceOWS,
		XMLNSXLink:   NamespaceXLink,
		Service:      "WPS",
		Version:      ServiceVersion,
		Title:        title,
		ProviderName: provider,
	}
}

// FormatXML is an emitted complex-data format tuple.
type FormatXML struct {
	MimeType string `xml:"MimeType"`
	Encoding string `xml:"Encoding,omitempty"`
	Schema   string `xml:"Schema,omitempty"`
}

// DataTypeXML is an emitted literal data type.
type DataTypeXML struct {
	Name      string `xml:",chardata"`
	Reference string `xml:"ows:reference,attr,omitempty"`
}

// AllowedValuesXML is an emitted literal domain restriction.
type AllowedValuesXML struct {
	Values []string `xml:"ows:Value"`
}

// LiteralDataXML is an emitted literal input or output domain.
type LiteralDataXML struct {
	DataType      *DataTypeXML      `xml:"ows:DataType,omitempty"`
	AnyValue      *struct{}         `xml:"ows:AnyValue,omitempty"`
	AllowedValues *AllowedValuesXML `xml:"ows:AllowedValues,omitempty"`
	DefaultValue  string            `xml:"DefaultValue,omitempty"`
}

// ComplexDataXML is an emitted complex I/O format description.
type ComplexDataXML struct {
	Default *struct {
		Format FormatXML `xml:"Format"`
	} `xml:"Default,omitempty"`
	Supported []FormatXML `xml:"Supported>Format"`
}

// BoundingBoxDataXML is an emitted bounding-box I/O description.
type BoundingBoxDataXML struct {
	Default   string   `xml:"Default>CRS,omitempty"`
	Supported []string `xml:"Supported>CRS"`
}

// InputDescriptionXML is an emitted DataInputs/Input element.
type InputDescriptionXML struct {
	MinOccurs       string              `xml:"minOccurs,attr"`
	MaxOccurs       string              `xml:"maxOccurs,attr"`
	Identifier      string              `xml:"ows:Identifier"`
	Title           string              `xml:"ows:Title"`
	Abstract        string              `xml:"ows:Abstract,omitempty"`
	LiteralData     *LiteralDataXML     `xml:"LiteralData,omitempty"`
	ComplexData     *ComplexDataXML     `xml:"ComplexData,omitempty"`
	BoundingBoxData *BoundingBoxDataXML `xml:"BoundingBoxData,omitempty"`
}

// OutputDescriptionXML is an emitted ProcessOutputs/Output element.
type OutputDescriptionXML struct {
	Identifier        string              `xml:"ows:Identifier"`
	Title             string              `xml:"ows:Title"`
	Abstract          string              `xml:"ows:Abstract,omitempty"`
	LiteralOutput     *LiteralDataXML     `xml:"LiteralOutput,omitempty"`
	ComplexOutput     *ComplexDataXML     `xml:"ComplexOutput,omitempty"`
	BoundingBoxOutput *BoundingBoxDataXML `xml:"BoundingBoxOutput,omitempty"`
}

// ProcessDescriptionXML is one emitted ProcessDescription element.
type ProcessDescriptionXML struct {
	ProcessVersion  string                 `xml:"wps:processVersion,attr,omitempty"`
	StoreSupported  bool                   `xml:"storeSupported,attr"`
	StatusSupported bool                   `xml:"statusSupported,attr"`
	Identifier      string                 `xml:"ows:Identifier"`
	Title           string                 `xml:"ows:Title"`
	Abstract        string                 `xml:"ows:Abstract,omitempty"`
	Inputs          []InputDescriptionXML  `xml:"DataInputs>Input,omitempty"`
	Outputs         []OutputDescriptionXML `xml:"ProcessOutputs>Output,omitempty"`
}

// ProcessDescriptionsXML is the emitted DescribeProcess response.
type ProcessDescriptionsXML struct {
	XMLName    xml.Name                `xml:"wps:ProcessDescriptions"`
	XMLNSWPS   string                  `xml:"xmlns:wps,attr"`
	XMLNSOWS   string                  `xml:"xmlns:ows,attr"`
	XMLNSXLink string                  `xml:"xmlns:xlink,attr"`
	Service    string                  `xml:"service,attr"`
	Version    string                  `xml:"version,attr"`
	Processes  []ProcessDescriptionXML `xml:"ProcessDescription"`
}

// NewProcessDescriptions builds an empty DescribeProcess response.
func NewProcessDescriptions() *ProcessDescriptionsXML {
	return &ProcessDescriptionsXML{
		XMLNSWPS:   NamespaceWPS,
		XMLNSOWS:   NamespaceOWS,
		XMLNSXLink: NamespaceXLink,
		Service:    "WPS",
		Version:    ServiceVersion,
	}
}

// StatusDetailXML is the body of a non-failure execute state.
type StatusDetailXML struct {
	PercentCompleted int    `xml:"percentCompleted,attr,omitempty"`
	Message          string `xml:",chardata"`
}

// StatusXML is the emitted Status element of an ExecuteResponse.
type StatusXML struct {
	CreationTime string           `xml:"creationTime,attr"`
	Accepted     *StatusDetailXML `xml:"wps:ProcessAccepted,omitempty"`
	Started      *StatusDetailXML `xml:"wps:ProcessStarted,omitempty"`
	Succeeded    *StatusDetailXML `xml:"wps:ProcessSucceeded,omitempty"`
	Failed       *struct {
		Report ExceptionReportXML `xml:"ows:ExceptionReport"`
	} `xml:"wps:ProcessFailed,omitempty"`
}

// ReferenceXML points an emitted output at its download location.
type ReferenceXML struct {
	Href     string `xml:"xlink:href,attr"`
	MimeType string `xml:"mimeType,attr,omitempty"`
	Encoding string `xml:"encoding,attr,omitempty"`
}

// LiteralValueXML is an emitted inline literal output value.
type LiteralValueXML struct {
	DataType string `xml:"dataType,attr,omitempty"`
	Value    string `xml:",chardata"`
}

// OutputXML is one emitted ProcessOutputs/Output element.
type OutputXML struct {
	Identifier string           `xml:"ows:Identifier"`
	Title      string           `xml:"ows:Title,omitempty"`
	Reference  *ReferenceXML    `xml:"wps:Reference,omitempty"`
	Literal    *LiteralValueXML `xml:"wps:Data>wps:LiteralData,omitempty"`
}

// ExecuteResponseXML is the emitted Execute response / status document.
type ExecuteResponseXML struct {
	XMLName        xml.Name    `xml:"wps:ExecuteResponse"`
	XMLNSWPS       string      `xml:"xmlns:wps,attr"`
	XMLNSOWS       string      `xml:"xmlns:ows,attr"`
	XMLNSXLink     string      `xml:"xmlns:xlink,attr"`
	Service        string      `xml:"service,attr"`
	Version        string      `xml:"version,attr"`
	StatusLocation string      `xml:"statusLocation,attr,omitempty"`
	Process        ProcessBriefXML `xml:"wps:Process"`
	Status         StatusXML   `xml:"wps:Status"`
	Outputs        []OutputXML `xml:"wps:ProcessOutputs>wps:Output,omitempty"`
}

// ResultOutputs renders produced job outputs as ProcessOutputs entries,
// by reference where a location exists and inline otherwise.
func ResultOutputs(results []model.JobResult) []OutputXML {
	outputs := make([]OutputXML, 0, len(results))
	for _, res := range results {
		out := OutputXML{Identifier: res.ID}
		if res.Href != "" {
			out.Reference = &ReferenceXML{Href: res.Href, MimeType: res.MimeType}
		} else {
			out.Literal = &LiteralValueXML{Value: fmt.Sprint(res.Data)}
		}
		outputs = append(outputs, out)
	}
	return outputs
}

// NewExecuteResponse builds the execute response skeleton for a job, with
// the Status element reflecting the job's canonical state.
func NewExecuteResponse(job *model.Job, processTitle, statusLocation string) *ExecuteResponseXML {
	resp := &ExecuteResponseXML{
		XMLNSWPS:       NamespaceWPS,
		XMLNSOWS:       NamespaceOWS,
		XMLNSXLink:     NamespaceXLink,
		Service:        "WPS",
		Version:        ServiceVersion,
		StatusLocation: statusLocation,
		Process: ProcessBriefXML{
			Identifier: job.ProcessID,
			Title:      processTitle,
		},
		Status: StatusXML{
			CreationTime: job.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
	detail := &StatusDetailXML{PercentCompleted: job.Progress, Message: job.Message}
	switch job.Status {
	case model.StatusAccepted:
		resp.Status.Accepted = detail
	case model.StatusSucceeded:
		detail.PercentCompleted = 100
		resp.Status.Succeeded = detail
	case model.StatusFailed, model.StatusDismissed:
		texts := make([]string, 0, len(job.Exceptions))
		for _, exc := range job.Exceptions {
			texts = append(texts, exc.Text)
		}
		if len(texts) == 0 {
			texts = append(texts, job.Message)
		}
		resp.Status.Failed = &struct {
			Report ExceptionReportXML `xml:"ows:ExceptionReport"`
		}{Report: *NewExceptionReport("NoApplicableCode", job.ProcessID, texts...)}
	default:
		resp.Status.Started = detail
	}
	return resp
}
