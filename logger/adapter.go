package logger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// event adapts a zerolog event to LogEvent.
type event struct {
	zev    *zerolog.Event
	filter *SensitiveDataFilter
}

func newEvent(zev *zerolog.Event, filter *SensitiveDataFilter) LogEvent {
	return &event{zev: zev, filter: filter}
}

func (e *event) Msg(msg string) { e.zev.Msg(msg) }

func (e *event) Msgf(format string, args ...any) { e.zev.Msgf(format, args...) }

func (e *event) Err(err error) LogEvent {
	e.zev = e.zev.Err(err)
	return e
}

// Str adds a string field, masked when the key is sensitive.
func (e *event) Str(key, value string) LogEvent {
	if e.filter != nil {
		value = e.filter.FilterString(key, value)
	}
	e.zev = e.zev.Str(key, value)
	return e
}

// Stringer adds value.String(). Dialects and statement kinds log through here.
func (e *event) Stringer(key string, value fmt.Stringer) LogEvent {
	if value == nil {
		e.zev = e.zev.Interface(key, nil)
		return e
	}
	return e.Str(key, value.String())
}

func (e *event) Int(key string, value int) LogEvent {
	e.zev = e.zev.Int(key, value)
	return e
}

func (e *event) Int64(key string, value int64) LogEvent {
	e.zev = e.zev.Int64(key, value)
	return e
}

// Interface adds an arbitrary field. Parameter maps, argument slices and structs
// are filtered recursively.
func (e *event) Interface(key string, i any) LogEvent {
	if e.filter != nil {
		i = e.filter.FilterValue(key, i)
	}
	e.zev = e.zev.Interface(key, i)
	return e
}
