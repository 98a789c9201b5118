package capture

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{name: "root", opts: Options{BaseURL: "http://127.0.0.1:8080"}, want: "http://127.0.0.1:8080/calendar"},
		{name: "trailing slash", opts: Options{BaseURL: "http://localhost:8080/"}, want: "http://localhost:8080/calendar"},
		{
			name: "month",
			opts: Options{BaseURL: "https://cal.example.com/crm", Month: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			want: "https://cal.example.com/crm/calendar?month=2024-03",
		},
		{name: "missing", opts: Options{}, wantErr: true},
		{name: "bad scheme", opts: Options{BaseURL: "ftp://host"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.opts.PageURL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	o := Options{}.withDefaults()
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Equal(t, DefaultTimeout, o.Timeout)

	o = Options{Width: 800, Height: 600, Timeout: time.Second}.withDefaults()
	assert.Equal(t, 800, o.Width)
	assert.Equal(t, 600, o.Height)
	assert.Equal(t, time.Second, o.Timeout)
}

func TestMonthPNGValidatesBeforeLaunching(t *testing.T) {
	t.Parallel()

	err := MonthPNG(context.Background(), Options{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorContains(t, err, "output path")

	err = MonthPNG(context.Background(), Options{OutputPath: "out.png"})
	assert.ErrorContains(t, err, "base URL")
}
