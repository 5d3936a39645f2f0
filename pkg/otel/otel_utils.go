package otel

import (
	"github.com/adrianliechti/docscan/pkg/recognizer"

	"go.opentelemetry.io/otel/attribute"
)

type KeyValue = attribute.KeyValue

func String(key string, val string) KeyValue {
	return attribute.String(key, val)
}

func Int(key string, val int) KeyValue {
	return attribute.Int(key, val)
}

func KeyValues(attrs ...[]KeyValue) []KeyValue {
	var result []KeyValue

	for _, a := range attrs {
		result = append(result, a...)
	}

	return result
}

func outcomeAttr(err error) KeyValue {
	switch {
	case err == nil:
		return attribute.String("recognition.outcome", "success")
	case recognizer.IsTransient(err):
		return attribute.String("recognition.outcome", "transient")
	default:
		return attribute.String("recognition.outcome", "failed")
	}
}
