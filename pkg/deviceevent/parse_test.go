package deviceevent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	obj, err := Parse(deviceAdded)
	require.NoError(t, err)

	assert.Equal(t, "DeviceEvent", obj.Tag)
	require.Len(t, obj.Fields, 3)

	ts, ok := obj.Get("time")
	require.True(t, ok)
	assert.Equal(t, "2022-04-04T07:17:21.038Z", ts.Value)

	subject, ok := obj.Get("subject")
	require.True(t, ok)
	require.NotNil(t, subject.Object)
	assert.Equal(t, "DefaultDevice", subject.Object.Tag)
	assert.Equal(t, []Field{
		{Key: "id", Value: "netconf:172.19.0.3:830"},
		{Key: "type", Value: "VIRTUAL"},
	}, subject.Object.Fields)

	_, ok = obj.Get("missing")
	assert.False(t, ok)
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Object
	}{
		{
			name: "empty object",
			raw:  "Empty{}",
			want: &Object{Tag: "Empty"},
		},
		{
			name: "scalar subject",
			raw:  "DeviceEvent{time=t, type=PORT_STATS_UPDATED, subject=of:1}",
			want: &Object{Tag: "DeviceEvent", Fields: []Field{
				{Key: "time", Value: "t"},
				{Key: "type", Value: "PORT_STATS_UPDATED"},
				{Key: "subject", Value: "of:1"},
			}},
		},
		{
			name: "nested object in the middle",
			raw:  "A{x=B{y=1}, z=2}",
			want: &Object{Tag: "A", Fields: []Field{
				{Key: "x", Object: &Object{Tag: "B", Fields: []Field{{Key: "y", Value: "1"}}}},
				{Key: "z", Value: "2"},
			}},
		},
		{
			name: "two levels",
			raw:  " A { x = B { y = C { z = 3 } } } ",
			want: &Object{Tag: "A", Fields: []Field{
				{Key: "x", Object: &Object{Tag: "B", Fields: []Field{
					{Key: "y", Object: &Object{Tag: "C", Fields: []Field{{Key: "z", Value: "3"}}}},
				}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"malformed",
		"A{x=1",
		"A{x}",
		"A{x=B{y=1}",
		"A{x=1} trailing",
		"A{x=B{y=1} z=2}",
	} {
		_, err := Parse(raw)
		if !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedEvent", raw, err)
		}
	}
}

func TestObject_String(t *testing.T) {
	obj, err := Parse("DeviceEvent{ time=t ,type=PORT_ADDED,  subject=DefaultDevice{id=of:1,type=SWITCH}}")
	require.NoError(t, err)

	assert.Equal(t, "DeviceEvent{time=t, type=PORT_ADDED, subject=DefaultDevice{id=of:1, type=SWITCH}}", obj.String())

	again, err := Parse(obj.String())
	require.NoError(t, err)
	assert.Equal(t, obj, again)
}
