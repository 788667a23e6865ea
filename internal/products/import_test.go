package product

import (
	"errors"
	"testing"
	"time"

	"github.com/diegojoyero/joyeria-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var importNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseCSVSpanishHeadersSemicolon(t *testing.T) {
	content := "Nombre;Descripción;Precio;Stock;Categoría;Estado;Imagen;Material;Destacado\r\n" +
		"Anillo Sol;\"Oro 18k; pulido\";S/ 1250,50;3;Anillos;activo;https://res.cloudinary.com/demo/image/upload/v1717/DiegoJoyero/oro/anillo-sol.jpg;Oro;sí\r\n" +
		"\r\n" +
		"Cadena Luna;;89.9;0;;Inactivo;;plata;no\n"

	rows, err := ParseCSV(content, enums.MaterialGold, importNow)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "Anillo Sol", first.Name)
	assert.Equal(t, "Oro 18k; pulido", first.Description)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("1250.5")), first.Price.String())
	assert.Equal(t, 3, first.Stock)
	assert.Equal(t, enums.MaterialGold, first.Material)
	assert.True(t, first.Featured)
	assert.Equal(t, enums.ProductStatusActive, first.Status)
	require.NotNil(t, first.ImagePublicID)
	assert.Equal(t, "DiegoJoyero/oro/anillo-sol", *first.ImagePublicID)

	second := rows[1]
	assert.Equal(t, ImportDefaultCategory, second.Category)
	assert.Equal(t, enums.MaterialSilver, second.Material)
	assert.Equal(t, enums.ProductStatusInactive, second.Status)
	assert.False(t, second.Featured)
	assert.Nil(t, second.ImagePublicID)
	assert.True(t, second.CreatedAt.Before(first.CreatedAt))
}

func TestParseCSVTabDelimiterAndThemeDefault(t *testing.T) {
	content := "name\tprice\tmaterial\tfeatured\n" +
		"Dije Estrella\t45\t\ttrue\n" +
		"Broche Nube\t60\tbronce\t1\n"

	rows, err := ParseCSV(content, enums.MaterialSilver, importNow)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, enums.MaterialSilver, row.Material)
		assert.True(t, row.Featured)
		assert.Equal(t, 0, row.Stock)
	}
}

func TestParseCSVCollectsRowErrors(t *testing.T) {
	content := "nombre,precio\n" +
		",10\n" +
		"Aro Brisa,1.234.5\n" +
		"Aro Mar,30\n"

	rows, err := ParseCSV(content, enums.MaterialGold, importNow)
	require.Len(t, rows, 1)
	assert.Equal(t, "Aro Mar", rows[0].Name)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	var rowErr *RowError
	require.True(t, errors.As(errs[0], &rowErr))
	assert.Equal(t, 2, rowErr.Line)
	assert.Equal(t, "fila 3: precio inválido", errs[1].Error())
}

func TestParseCSVRejectsNegativeStock(t *testing.T) {
	content := "nombre,precio,stock\n" +
		"Anillo Alba,100,-3\n" +
		"Anillo Ocaso,100,2\n"

	rows, err := ParseCSV(content, enums.MaterialGold, importNow)
	require.Len(t, rows, 1)
	assert.Equal(t, "Anillo Ocaso", rows[0].Name)

	errs := multierr.Errors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "fila 2: stock negativo", errs[0].Error())
}

func TestParseCSVWithoutRowsOrNameColumn(t *testing.T) {
	rows, err := ParseCSV("nombre,precio\n\n", enums.MaterialGold, importNow)
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, err = ParseCSV("titulo,precio\nAnillo,10\n", enums.MaterialGold, importNow)
	assert.ErrorIs(t, err, ErrMissingNameColumn)
}

func TestSplitLineQuotes(t *testing.T) {
	got := splitLine(`"Collar ""Aurora""", 120 ,"a,b"`, ",")
	assert.Equal(t, []string{`Collar "Aurora"`, "120", "a,b"}, got)

	got = splitLine(`"""Luna""",""`, ",")
	assert.Equal(t, []string{`"Luna"`, ""}, got)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ";", detectDelimiter("a;b;c,d"))
	assert.Equal(t, "\t", detectDelimiter("a\tb"))
	assert.Equal(t, ",", detectDelimiter("nombre"))
}
