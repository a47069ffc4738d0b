package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/winlab/netconflogger/internal/api"
	"github.com/winlab/netconflogger/pkg/deviceevent"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	FormatCLI  OutputFormat = "cli"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

func render(w io.Writer, format string, data any) error {
	switch OutputFormat(format) {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	case FormatCLI:
		return renderCLI(w, data)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// recordView gives Record the collector's field names in json and yaml output.
type recordView struct {
	DeviceID  string `json:"deviceId" yaml:"deviceId"`
	EventType string `json:"eventType" yaml:"eventType"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

func newRecordView(rec deviceevent.Record) recordView {
	return recordView{DeviceID: rec.DeviceID, EventType: rec.Kind, Timestamp: rec.Timestamp}
}

func renderCLI(w io.Writer, data any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch v := data.(type) {
	case recordView:
		fmt.Fprintf(tw, "Device ID\t%s\n", v.DeviceID)
		fmt.Fprintf(tw, "Event Type\t%s\n", v.EventType)
		fmt.Fprintf(tw, "Timestamp\t%s\n", v.Timestamp)

	case *api.StatusResponse:
		r := v.Relay
		fmt.Fprintf(tw, "Endpoint\t%s\n", r.Endpoint)
		fmt.Fprintf(tw, "Received\t%d\n", r.Received)
		fmt.Fprintf(tw, "Delivered\t%d\n", r.Delivered)
		fmt.Fprintf(tw, "Malformed\t%d\n", r.Malformed)
		fmt.Fprintf(tw, "Skipped\t%d\n", r.Skipped)
		if r.LastStatus != 0 {
			fmt.Fprintf(tw, "Last Status\t%d\n", r.LastStatus)
		}
		reasons := make([]string, 0, len(r.Failed))
		for reason := range r.Failed {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(tw, "Failed (%s)\t%d\n", reason, r.Failed[reason])
		}
		fmt.Fprintf(tw, "Bus Queue\t%d/%d\n", v.Bus.PublishChLen, v.Bus.PublishChCap)
		fmt.Fprintf(tw, "Bus Published\t%d\n", v.Bus.Published)
		fmt.Fprintf(tw, "Bus Dropped\t%d\n", v.Bus.Dropped)

	case *deviceevent.Object:
		fmt.Fprintln(tw, v.String())

	default:
		tw.Flush()
		return render(w, string(FormatYAML), data)
	}

	return tw.Flush()
}
