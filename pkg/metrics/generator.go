package metrics

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type FieldMetric struct {
	FieldName  string
	MetricName string
	Help       string
	Type       prometheus.ValueType
}

// ParsePrometheusTag reads a `prometheus:"name=...,help=...,type=..."` tag.
// Help text cannot contain commas.
func ParsePrometheusTag(tag string) (name, help string, metricType prometheus.ValueType, err error) {
	var nameFound, helpFound, typeFound bool

	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "name":
			name = value
			nameFound = true
		case "help":
			help = value
			helpFound = true
		case "type":
			typeFound = true
			switch value {
			case "counter":
				metricType = prometheus.CounterValue
			case "gauge":
				metricType = prometheus.GaugeValue
			default:
				return "", "", 0, fmt.Errorf("unknown metric type: %s", value)
			}
		}
	}

	if !nameFound || !helpFound || !typeFound {
		return "", "", 0, fmt.Errorf("missing required prometheus tag fields (name, help, type)")
	}

	return name, help, metricType, nil
}

func GenerateMetrics(structType reflect.Type) ([]FieldMetric, error) {
	var metrics []FieldMetric

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tag, ok := field.Tag.Lookup("prometheus")
		if !ok {
			continue
		}

		name, help, metricType, err := ParsePrometheusTag(tag)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}

		metrics = append(metrics, FieldMetric{
			FieldName:  field.Name,
			MetricName: name,
			Help:       help,
			Type:       metricType,
		})
	}

	return metrics, nil
}

func GetFieldValue(v reflect.Value, fieldName string) (float64, error) {
	field := v.FieldByName(fieldName)
	if !field.IsValid() {
		return 0, fmt.Errorf("field %s not found", fieldName)
	}

	switch field.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(field.Uint()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(field.Int()), nil
	case reflect.Float32, reflect.Float64:
		return field.Float(), nil
	case reflect.Struct:
		if field.Type() == reflect.TypeOf(time.Time{}) {
			return float64(field.Interface().(time.Time).Unix()), nil
		}
		return 0, fmt.Errorf("unsupported struct type for field %s", fieldName)
	default:
		return 0, fmt.Errorf("unsupported type for field %s: %s", fieldName, field.Kind())
	}
}

// StructCollector exports the tagged fields of a snapshot struct, taken on
// every scrape.
type StructCollector[T any] struct {
	snapshot func() T
	metrics  []FieldMetric
	descs    map[string]*prometheus.Desc
}

func NewStructCollector[T any](snapshot func() T) (*StructCollector[T], error) {
	var zero T
	metrics, err := GenerateMetrics(reflect.TypeOf(zero))
	if err != nil {
		return nil, fmt.Errorf("failed to generate metrics: %w", err)
	}

	descs := make(map[string]*prometheus.Desc, len(metrics))
	for _, m := range metrics {
		descs[m.MetricName] = prometheus.NewDesc(m.MetricName, m.Help, nil, nil)
	}

	return &StructCollector[T]{
		snapshot: snapshot,
		metrics:  metrics,
		descs:    descs,
	}, nil
}

func (c *StructCollector[T]) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range c.descs {
		ch <- desc
	}
}

func (c *StructCollector[T]) Collect(ch chan<- prometheus.Metric) {
	v := reflect.ValueOf(c.snapshot())
	for _, m := range c.metrics {
		value, err := GetFieldValue(v, m.FieldName)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.descs[m.MetricName], m.Type, value)
	}
}
