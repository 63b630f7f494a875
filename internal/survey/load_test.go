package survey

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleHeader = "DATA INICIAL,DATA FINAL,REGIÃO,ESTADO,MUNICÍPIO,PRODUTO,NÚMERO DE POSTOS PESQUISADOS,UNIDADE DE MEDIDA,PREÇO MÉDIO REVENDA,PREÇO MÍNIMO REVENDA,PREÇO MÁXIMO REVENDA"

func TestReadCSV_MapsColumnsByHeader(t *testing.T) {
	in := "\ufeff" + sampleHeader + "\n" +
		`30/12/2018,05/01/2019,NORTE,ACRE,RIO BRANCO,GASOLINA COMUM,12,R$/l,"4,567","4,390","4,790"` + "\n"

	recs, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	require.Equal(t, 2, r.Line)
	require.Equal(t, "ACRE", r.State)
	require.Equal(t, "RIO BRANCO", r.Municipality)
	require.Equal(t, "NORTE", r.Region)
	require.Equal(t, "GASOLINA COMUM", r.Product)
	require.Equal(t, "30/12/2018", r.PeriodStart)
	require.Equal(t, "05/01/2019", r.PeriodEnd)
	require.Equal(t, "4,567", r.AvgResalePrice)
	require.Equal(t, "4,390", r.MinResalePrice)
	require.Equal(t, "4,790", r.MaxResalePrice)
	require.Equal(t, "12", r.StationsSurveyed)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	in := "ESTADO,MUNICÍPIO\nACRE,RIO BRANCO\n"
	_, err := ReadCSV(strings.NewReader(in))
	require.Error(t, err)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, ColRegion, fe.Column)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadCSV_ShortRow(t *testing.T) {
	in := sampleHeader + "\n30/12/2018,05/01/2019,NORTE\n"
	_, err := ReadCSV(strings.NewReader(in))

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 2, fe.Line)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestLoadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")
	_, err := LoadFile(path)
	require.Error(t, err)

	var me *MissingInputError
	require.True(t, errors.As(err, &me))
	require.Equal(t, path, me.Path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_ReadsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "week.csv")
	body := sampleHeader + "\n" +
		`06/01/2019,12/01/2019,SUL,PARANA,CURITIBA,ETANOL HIDRATADO,30,R$/l,"3,100","2,990","3,390"` + "\n" +
		`06/01/2019,12/01/2019,SUL,PARANA,CURITIBA,GLP,8,R$/13Kg,"69,50","65,00","75,00"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	recs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "GLP", recs[1].Product)
	require.Equal(t, 3, recs[1].Line)
}
