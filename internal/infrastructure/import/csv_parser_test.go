package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("comma separated", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("make,model\nPeugeot,308"))
		require.NoError(t, err)
		assert.Equal(t, ',', p.Delimiter())
		assert.Equal(t, "utf-8", p.Encoding())
	})

	t.Run("semicolon detected", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("Marque;Modèle;Prix, HT\nPeugeot;308;12 500,00"))
		require.NoError(t, err)
		assert.Equal(t, ';', p.Delimiter())
	})

	t.Run("forced delimiter", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("make;model"), WithDelimiter('|'))
		require.NoError(t, err)
		assert.Equal(t, '|', p.Delimiter())
	})

	t.Run("BOM stripped", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFmake,model\nRenault,Clio"))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"make", "model"}, p.Headers())
	})

	t.Run("windows-1252 decoded", func(t *testing.T) {
		// "Modèle" with è as 0xE8
		p, err := NewCSVParser(strings.NewReader("Marque;Mod\xe8le\nCitro\xebn;C3"))
		require.NoError(t, err)
		assert.Equal(t, "windows-1252", p.Encoding())
		require.NoError(t, p.ParseHeader())
		assert.Equal(t, []string{"marque", "modèle"}, p.Headers())

		row, err := p.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Citroën", row.Get("marque"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Purchase Price":       "purchase_price",
		"  registration-plate": "registration_plate",
		"VIN":                  "vin",
		"cost.transport":       "cost_transport",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestParseHeader(t *testing.T) {
	t.Run("aliases", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("Marque;Immatriculation\nRenault;AB-123-CD"),
			WithHeaderAliases(map[string]string{"Marque": "make", "immatriculation": "registration_plate"}))
		require.NoError(t, err)
		require.NoError(t, p.ParseHeader())
		assert.True(t, p.HasHeader("make"))
		assert.True(t, p.HasHeader("registration_plate"))
		assert.Equal(t, []string{"model"}, p.MissingHeaders([]string{"make", "model"}))
	})

	t.Run("duplicate column", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader("make,Make\nA,B"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrInvalidHeader)
	})

	t.Run("blank header row", func(t *testing.T) {
		p, err := NewCSVParser(strings.NewReader(",,\nA,B,C"))
		require.NoError(t, err)
		assert.ErrorIs(t, p.ParseHeader(), ErrMissingHeader)
	})
}

func TestReadRows(t *testing.T) {
	data := "make,model,year\nPeugeot, 308 ,2019\n,,\nRenault,Clio\n"
	p, err := NewCSVParser(strings.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAllRows(0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "308", rows[0].Get("model"))
	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "", rows[1].Get("year"), "short rows are padded")
	assert.Equal(t, 3, p.TotalRows())

	_, err = p.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestReadAllRows_Limit(t *testing.T) {
	p, err := NewCSVParser(strings.NewReader("make\nA\nB\nC\n"))
	require.NoError(t, err)
	require.NoError(t, p.ParseHeader())

	rows, err := p.ReadAllRows(2)
	assert.ErrorIs(t, err, ErrTooManyRows)
	assert.Len(t, rows, 2)
}
