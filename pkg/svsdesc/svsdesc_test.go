package svsdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "Aperio Image Library v11.0.0|AppMag = 20|StripeWidth = 2000|MPP = 0.4990|Date = 08/06/08|Time = 12:34:56|Time Zone = GMT-0500|ScanScope ID = SS1234"

func TestParseSplitsPrefixAndEntries(t *testing.T) {
	d := Parse(sample)
	assert.Equal(t, "Aperio Image Library v11.0.0", d.Prefix)
	require.Len(t, d.Entries, 7)
	assert.Equal(t, "AppMag", d.Entries[0].Key)
}

func TestParseCoercesIntFloatString(t *testing.T) {
	d := Parse(sample)

	v, ok := d.Get("AppMag")
	require.True(t, ok)
	assert.Equal(t, int64(20), v)

	v, ok = d.Get("MPP")
	require.True(t, ok)
	assert.Equal(t, 0.499, v)

	v, ok = d.Get("Date")
	require.True(t, ok)
	assert.Equal(t, "08/06/08", v)
}

func TestRoundTripIsByteEqualWhenUnmodified(t *testing.T) {
	d := Parse(sample)
	assert.Equal(t, sample, d.Serialize())
}

func TestSetThenSerializeUsesNewValue(t *testing.T) {
	d := Parse(sample)
	d.Set("Date", "01/01/08")
	d.Set("Time", "00:00:00")
	d.Set("Time Zone", "GMT+0000")

	got := d.Serialize()
	assert.Contains(t, got, "Date = 01/01/08")
	assert.Contains(t, got, "Time = 00:00:00")
	assert.Contains(t, got, "Time Zone = GMT+0000")
	assert.Contains(t, got, "AppMag = 20", "unmodified entries round-trip untouched")
}

func TestDeleteRemovesEntry(t *testing.T) {
	d := Parse(sample)
	d.Delete("ScanScope ID")
	_, ok := d.Get("ScanScope ID")
	assert.False(t, ok)
}

func TestSetAppendsNewKey(t *testing.T) {
	d := Description{Prefix: "Aperio"}
	d.Set("AppMag", int64(40))
	assert.Equal(t, "Aperio|AppMag = 40", d.Serialize())
}

func TestSegmentWithoutEqualsPreservedVerbatim(t *testing.T) {
	d := Parse("Aperio|standalone-flag|AppMag = 20")
	assert.Equal(t, "Aperio|standalone-flag|AppMag = 20", d.Serialize())
}
