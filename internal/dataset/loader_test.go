package dataset

import (
	"path/filepath"
	"testing"

	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLocation = "Westerschelde Terneuzen"
	testFixture  = "testdata/metingen.csv"
)

const minimalCSV = `Locatie,PFAS,Bron,Medium,Sampletype,Eenheid,Jaar,Waarde,Latitude,Longitude,LOQ_flag
Westerschelde Terneuzen,PFOS,RWS,Oppervlaktewater,zwevend stof,ng/l,2021,9.1,51.3369,3.8271,0
`

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestLoad_DutchHeaders(t *testing.T) {
	res, err := Load([]byte(minimalCSV))

	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)

	m := res.Measurements[0]
	assert.Equal(t, testLocation, m.Location)
	assert.Equal(t, "PFOS", m.Substance)
	assert.Equal(t, "RWS", m.Source)
	assert.Equal(t, "Oppervlaktewater", m.Medium)
	assert.Equal(t, "zwevend stof", m.SampleType)
	assert.Equal(t, "ng/l", m.Unit)
	assert.Equal(t, iptr(2021), m.Year)
	assert.Equal(t, fptr(9.1), m.Value)
	assert.Equal(t, fptr(51.3369), m.Lat)
	assert.Equal(t, fptr(3.8271), m.Lon)
	require.NotNil(t, m.BelowLOQ)
	assert.False(t, *m.BelowLOQ)
	assert.Equal(t, domain.GeoSourceDataset, m.GeoSource)

	assert.Equal(t, 1, res.Stats.Rows)
	assert.Zero(t, res.Stats.FailureTotal())
}

func TestLoad_EnglishAliases(t *testing.T) {
	data := `location,substance,source,medium,sample_type,unit,year,value,lat,lon,below_loq
Vlissingen Haven,PFOA,RWS,Oppervlaktewater,oppervlaktewater,ng/l,2022,2.8,51.4425,3.5735,1
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)
	m := res.Measurements[0]
	assert.Equal(t, "Vlissingen Haven", m.Location)
	assert.Equal(t, "PFOA", m.Substance)
	assert.Equal(t, iptr(2022), m.Year)
	assert.Equal(t, fptr(2.8), m.Value)
	require.NotNil(t, m.BelowLOQ)
	assert.True(t, *m.BelowLOQ)
}

func TestLoad_HeaderNormalization(t *testing.T) {
	data := "﻿LOCATIE, Pfas ,BRON,MEDIUM,SAMPLETYPE,EENHEID,JAAR,WAARDE,LATITUDE,LONGITUDE,loq_flag\n" +
		"Ritthem,PFNA,RWZI,Effluent,effluent,ng/l,2022,4.2,51.4481,3.6483,0\n"

	res, err := Load([]byte(data))

	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)
	assert.Equal(t, "Ritthem", res.Measurements[0].Location)
	assert.Equal(t, "PFNA", res.Measurements[0].Substance)
}

func TestLoad_ScaledCoordinates(t *testing.T) {
	data := `Locatie,PFAS,Jaar,Waarde,Latitude,Longitude
Vlissingen Haven,PFOS,2021,4.1,514425,35735
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	m := res.Measurements[0]
	require.NotNil(t, m.Lat)
	require.NotNil(t, m.Lon)
	assert.InDelta(t, 51.4425, *m.Lat, 1e-9)
	assert.InDelta(t, 3.5735, *m.Lon, 1e-9)
	assert.Equal(t, 1, res.Stats.RescaledCoordinates)
	assert.Zero(t, res.Stats.DroppedCoordinates)
}

func TestLoad_CoercionFailures(t *testing.T) {
	data := `Locatie,PFAS,Jaar,Waarde,Latitude,Longitude
Ritthem,PFNA,n.v.t.,<0.5,onbekend,3.6483
Axel,PFOS,2019,12.5,,
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Rows)
	assert.Equal(t, map[string]int{
		domain.FieldYear:     1,
		domain.FieldValue:    1,
		domain.FieldLatitude: 1,
	}, res.Stats.CoercionFailures)

	// Unparsable cells degrade to missing, empty cells are simply missing.
	assert.Nil(t, res.Measurements[0].Year)
	assert.Nil(t, res.Measurements[0].Value)
	assert.Nil(t, res.Measurements[1].Lat)
}

func TestLoad_NanPlaceholderFolds(t *testing.T) {
	data := `Locatie,PFAS,Medium,Jaar,Waarde
nan,PFOS,NaN,nan,3.1
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	m := res.Measurements[0]
	assert.Empty(t, m.Location)
	assert.Empty(t, m.Medium)
	assert.Nil(t, m.Year)
	assert.Zero(t, res.Stats.FailureTotal())
}

func TestLoad_ShortRowReadsEmptyCells(t *testing.T) {
	data := `Locatie,PFAS,Jaar,Waarde
Hulst,PFHxA
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)
	m := res.Measurements[0]
	assert.Equal(t, "Hulst", m.Location)
	assert.Equal(t, "PFHxA", m.Substance)
	assert.Nil(t, m.Year)
	assert.Nil(t, m.Value)
}

func TestLoad_UnknownColumnsIgnored(t *testing.T) {
	data := `Locatie,PFAS,Waarde,Opmerking
Hulst,PFHxA,0.9,herbemonstering gepland
`

	res, err := Load([]byte(data))

	require.NoError(t, err)
	require.Len(t, res.Measurements, 1)
	assert.Equal(t, fptr(0.9), res.Measurements[0].Value)
}

func TestLoad_Fingerprint(t *testing.T) {
	a, err := Load([]byte(minimalCSV))
	require.NoError(t, err)
	b, err := Load([]byte(minimalCSV))
	require.NoError(t, err)
	c, err := Load([]byte(minimalCSV + "Axel,PFOS,RWS,Oppervlaktewater,zwevend stof,ng/l,2019,12.5,51.2645,3.8885,1\n"))
	require.NoError(t, err)

	assert.Len(t, a.Fingerprint, 64)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		_, err := Load(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty file")
	})

	t.Run("no recognized columns", func(t *testing.T) {
		_, err := Load([]byte("foo,bar\n1,2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no recognized columns")
	})
}

func TestLoadFile(t *testing.T) {
	res, err := LoadFile(testFixture)

	require.NoError(t, err)
	assert.Equal(t, 12, res.Stats.Rows)
	assert.Len(t, res.Fingerprint, 64)
	assert.Equal(t, 4, res.Stats.RescaledCoordinates)
	assert.Equal(t, 1, res.Stats.DroppedCoordinates)
	assert.Equal(t, map[string]int{domain.FieldValue: 1}, res.Stats.CoercionFailures)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "ontbreekt.csv"))
	assert.Error(t, err)
}
