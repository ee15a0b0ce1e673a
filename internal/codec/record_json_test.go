package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/entity"
	"notevault/internal/storeerr"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	n := &entity.Note{
		Id:         1700000000000,
		Title:      "groceries",
		Content:    "<p>milk</p>",
		Categories: []string{"errands", "home"},
		Images:     []string{"data:image/png;base64,AAAA"},
		CreatedAt:  time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
	}
	n.Normalize()

	data, err := EncodeRecord(n)
	require.NoError(t, err)

	got, err := DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestDecodeLegacyCategoryOnly(t *testing.T) {
	raw := []byte(`{"id":5,"title":"t","content":"","category":"work","createdAt":"2023-01-02T03:04:05.000Z"}`)

	got, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, got.Categories)
	require.NotNil(t, got.Category)
	assert.Equal(t, "work", *got.Category)
}

func TestDecodeLegacyImageOnly(t *testing.T) {
	raw := []byte(`{"id":5,"title":"t","content":"","image":"data:image/png;base64,BBBB","createdAt":"2023-01-02T03:04:05.000Z"}`)

	got, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"data:image/png;base64,BBBB"}, got.Images)
}

func TestDecodeRehydratesDate(t *testing.T) {
	raw := []byte(`{"id":5,"title":"t","content":"","createdAt":"2023-01-02T03:04:05.123Z"}`)

	got, err := DecodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 123000000, time.UTC), got.CreatedAt.UTC())
}

func TestDecodeCorruptRecord(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		_, err := DecodeRecord([]byte(`{not json`))
		assert.ErrorIs(t, err, storeerr.ErrCorruptRecord)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := DecodeRecord([]byte(`{"id":1,"title":"t","content":"","createdAt":"yesterday"}`))
		assert.ErrorIs(t, err, storeerr.ErrCorruptRecord)
	})
}

func TestDecodeRecordsSkipsCorruptElements(t *testing.T) {
	raw := []byte(`[
		{"id":1,"title":"ok","content":"","createdAt":"2023-01-02T03:04:05Z"},
		{"id":2,"title":"bad","content":"","createdAt":"not-a-date"},
		{"id":3,"title":"ok too","content":"","createdAt":"2023-01-03T03:04:05Z"}
	]`)

	notes, dropped, err := DecodeRecords(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)
	require.Len(t, notes, 2)
	assert.Equal(t, int64(1), notes[0].Id)
	assert.Equal(t, int64(3), notes[1].Id)
}

func TestDecodeRecordsCorruptEnvelope(t *testing.T) {
	_, _, err := DecodeRecords([]byte(`{"not":"an array"}`))
	assert.ErrorIs(t, err, storeerr.ErrCorruptRecord)
}

func TestEncodeRecordsRoundTrip(t *testing.T) {
	notes := []*entity.Note{
		{Id: 1, Title: "a", CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Id: 2, Title: "b", Categories: []string{"x"}, CreatedAt: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, n := range notes {
		n.Normalize()
	}

	data, err := EncodeRecords(notes)
	require.NoError(t, err)

	got, dropped, err := DecodeRecords(data)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	assert.Equal(t, notes, got)
}
