package metapb

import "testing"

func TestRoundTrip(t *testing.T) {
	m := Meta{
		Filters: []RangeFilter{
			{Field: "price", Lower: 10, Upper: 20, HasUpper: true},
			{Field: "age", Lower: 18, HasUpper: false},
		},
		Extra: []byte("caller-opaque"),
	}

	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(got.Filters) != 2 || got.Filters[0] != m.Filters[0] || got.Filters[1] != m.Filters[1] {
		t.Errorf("Decode() filters = %+v, want %+v", got.Filters, m.Filters)
	}
	if string(got.Extra) != "caller-opaque" {
		t.Errorf("Decode() extra = %q, want %q", got.Extra, "caller-opaque")
	}
}

func TestDecodeEmptyBlob(t *testing.T) {
	m, err := Decode(nil)
	if err != nil {
		t.Fatalf("Decode(nil) error: %v", err)
	}
	if len(m.Filters) != 0 || len(m.Extra) != 0 {
		t.Errorf("Decode(nil) = %+v, want zero value", m)
	}
}
