package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-analytics/pkg/models"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadOrderDir_FileOrderAndBOM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_orders.csv", "Name,Email,Subtotal\n#1002,b@x.com,\"1,200.50\"\n")
	writeFile(t, dir, "a_orders.csv", "\ufeffName,Email,Subtotal\n#1001,a@x.com,10\n#1001,,\n")
	writeFile(t, dir, "notes.txt", "ignored")

	rows, err := ReadOrderDir(dir, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "#1001", rows[0][models.FieldName])
	assert.Equal(t, "a@x.com", rows[0][models.FieldEmail])
	assert.Equal(t, "#1001", rows[1][models.FieldName])
	assert.Equal(t, "#1002", rows[2][models.FieldName])
	assert.Equal(t, "1,200.50", rows[2][models.FieldSubtotal])
}

func TestReadOrderDir_Empty(t *testing.T) {
	_, err := ReadOrderDir(t.TempDir(), false)
	assert.Error(t, err)
}

func TestReadOrderDir_ShortRow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "Name,Email,Tags\n#1,a@x.com\n")

	rows, err := ReadOrderDir(dir, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0][models.FieldTags])
}

func TestReadMediumLookup(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "mediums.csv", "order_name,utm_medium\n#1,cpc\n#1,email\n,sms\n#2, email \n")

	lookup, err := ReadMediumLookup(path)
	require.NoError(t, err)
	assert.Equal(t, models.MediumLookup{"#1": "cpc", "#2": "email"}, lookup)
}

func TestReadMediumLookup_Missing(t *testing.T) {
	lookup, err := ReadMediumLookup(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Nil(t, lookup)

	lookup, err = ReadMediumLookup("")
	require.NoError(t, err)
	assert.Nil(t, lookup)
}

func TestReadMediumLookup_HeaderOnlyIsPresent(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mediums.csv", "Name,medium\n")

	lookup, err := ReadMediumLookup(path)
	require.NoError(t, err)
	assert.NotNil(t, lookup)
	assert.Empty(t, lookup)
}

func TestReadChannelSessions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sessions.csv",
		"week,channel,sessions,completed_checkouts\n2024-03-04,paid,\"1,000\",25\n2024-03-04,email,oops,3\n")

	rows, err := ReadChannelSessions(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ChannelSessionRow{Week: "2024-03-04", Channel: "paid", Sessions: 1000, Completions: 25}, rows[0])
	assert.Equal(t, 0, rows[1].Sessions)
}

func TestReadLandingSessions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "landing.csv",
		"week,landing_page_path,sessions,cart_additions\n2024-03-04,/products/starter-kit,300,30\n")

	rows, err := ReadLandingSessions(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/products/starter-kit", rows[0].Path)
	assert.Equal(t, 300, rows[0].Sessions)
	assert.Equal(t, 30, rows[0].CartAdds)
}
