package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/MrJamesThe3rd/bonsai/internal/encoding"
)

const header = "Data mov.;Descrição;Montante\nCafé Central;-3,40\n"

func TestDecode(t *testing.T) {
	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(header))
	require.NoError(t, err)

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(header))
	require.NoError(t, err)

	tests := []struct {
		name        string
		input       []byte
		wantCharset string
	}{
		{name: "UTF8", input: []byte(header), wantCharset: encoding.UTF8},
		{name: "UTF8BOM", input: append([]byte{0xEF, 0xBB, 0xBF}, header...), wantCharset: encoding.UTF8},
		{name: "Windows1252", input: latin1},
		{name: "UTF16LE", input: utf16le, wantCharset: encoding.UTF16LE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, charset, err := encoding.Decode(bytes.NewReader(tt.input))
			require.NoError(t, err)

			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, charset)
			} else {
				assert.NotEqual(t, encoding.UTF8, charset)
			}

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, header, string(got))
		})
	}
}

func TestDecode_LargeInput(t *testing.T) {
	input := bytes.Repeat([]byte("Mercearia Conceição;-12,00\n"), 500)

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestDecode_Empty(t *testing.T) {
	r, charset, err := encoding.Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, encoding.UTF8, charset)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
