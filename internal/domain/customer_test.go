package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	c := Customer{
		ID:        7,
		FirstName: "Andres",
		LastName:  "Guzman",
		Email:     "andres@correo.com",
		CreatedAt: NewDate(time.Date(2018, 1, 1, 15, 30, 0, 0, time.UTC)),
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"nombre":"Andres","apellido":"Guzman","email":"andres@correo.com","createAt":"2018-01-01","foto":null}`, string(data))

	var back Customer
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, c, back)
}

func TestDateUnmarshalVariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "date only", input: `"2020-02-29"`, want: NewDate(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))},
		{name: "rfc3339", input: `"2020-02-29T23:10:00Z"`, want: NewDate(time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC))},
		{name: "null", input: `null`, want: Date{}},
		{name: "empty string", input: `""`, want: Date{}},
		{name: "garbage", input: `"yesterday"`, wantErr: true},
		{name: "number", input: `12`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestDateScanAndValue(t *testing.T) {
	want := NewDate(time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC))

	var d Date
	require.NoError(t, d.Scan("2021-06-15"))
	assert.Equal(t, want, d)

	require.NoError(t, d.Scan([]byte("2021-06-15 00:00:00+00:00")))
	assert.Equal(t, want, d)

	require.NoError(t, d.Scan(time.Date(2021, 6, 15, 10, 0, 0, 0, time.FixedZone("X", 3600))))
	assert.Equal(t, want, d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))

	v, err := want.Value()
	require.NoError(t, err)
	assert.Equal(t, "2021-06-15", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCustomerPhoto(t *testing.T) {
	c := &Customer{}
	assert.Equal(t, "", c.PhotoName())

	c.SetPhoto("abc_foto.jpg")
	assert.Equal(t, "abc_foto.jpg", c.PhotoName())

	c.SetPhoto("")
	assert.Nil(t, c.Photo)
}
