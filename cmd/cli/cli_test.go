package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"advocatehub/internal/advocate"
	"advocatehub/internal/csvio"
	"advocatehub/pkg/database"
	"advocatehub/pkg/models"
)

func testCmd(in string) (*cobra.Command, *bytes.Buffer) {
	logger = zap.NewNop()
	timeout = 5 * time.Second

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader(in))
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	return cmd, out
}

func openTestStore(t *testing.T) *advocate.Repo {
	t.Helper()
	db, err := database.Open(database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "cli.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return advocate.NewRepo(db)
}

func TestTokenFileLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	_, err := loadToken(path)
	assert.Error(t, err)

	require.NoError(t, saveToken(path, "abc"))
	tok, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, clearToken(path))
	require.NoError(t, clearToken(path))
	assert.Error(t, saveToken(path, ""))
}

func TestRunSearchPrintsTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "heart health", r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(models.Page{
			Data: []models.Advocate{{
				FirstName: "John", LastName: "Doe", City: "New York", Degree: "MD",
				Specialties: []string{"Bipolar", "LGBTQ"}, YearsOfExperience: "10", PhoneNumber: "5551234567",
			}},
			Total: 1,
		})
	}))
	defer srv.Close()
	apiURL = srv.URL

	cmd, out := testCmd("")
	require.NoError(t, runSearch(cmd, []string{"heart", "health"}))
	assert.Contains(t, out.String(), "heart health: 1 match(es), showing 1")
	assert.Contains(t, out.String(), "John Doe")
	assert.Contains(t, out.String(), "Bipolar, LGBTQ")
}

func TestRunLiveShowsLatestQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(models.Page{Data: []models.Advocate{{LastName: q}}, Total: 1})
	}))
	defer srv.Close()
	apiURL = srv.URL
	liveDelay = 50 * time.Millisecond
	liveWS = false

	cmd, out := testCmd("c\nca\ncar\n")
	require.NoError(t, runLive(cmd, nil))

	// the burst collapses into the last line
	assert.Equal(t, 1, strings.Count(out.String(), "match(es)"))
	assert.Contains(t, out.String(), "car: 1 match(es)")
}

func TestRunHashPassword(t *testing.T) {
	cmd, out := testCmd("s3cret\n")
	require.NoError(t, runHashPassword(cmd, nil))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	cmd, _ = testCmd("")
	assert.Error(t, runHashPassword(cmd, nil))
}

func TestRunLoginAndSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_, _ = w.Write([]byte(`{"token":"tok"}`))
		case "/advocates/seed":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"inserted":17}`))
		}
	}))
	defer srv.Close()
	apiURL = srv.URL
	tokenPath = filepath.Join(t.TempDir(), "token.json")

	cmd, _ := testCmd("")
	assert.Error(t, runSeed(cmd, nil))

	cmd, out := testCmd("pw\n")
	require.NoError(t, runLogin(cmd, nil))
	assert.Contains(t, out.String(), "logged in")

	cmd, out = testCmd("")
	require.NoError(t, runSeed(cmd, nil))
	assert.Contains(t, out.String(), "inserted 17 advocates")
}

func TestImportThenExportCSV(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t)

	in := "first_name,last_name,city,degree,specialties,years_of_experience,phone_number\n" +
		"Ann,Oak,Reno,MD,Trauma|Sleep,5,5550100\n" +
		"Ben,Elm,Waco,PhD,\"[\"\"Sleep\"\"]\",,5550200\n" +
		"Ann,Oak,Reno,MD,Sleep;Trauma,5,5550100\n"

	n, err := importCSV(ctx, repo, strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var buf bytes.Buffer
	n, err = exportCSV(ctx, repo, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raws, err := csvio.ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	elm := advocate.Normalize(raws[0])
	oak := advocate.Normalize(raws[1])
	assert.Equal(t, "Elm", elm.LastName)
	assert.Equal(t, "", elm.YearsOfExperience)
	assert.Equal(t, "Oak", oak.LastName)
	assert.Equal(t, []string{"Sleep", "Trauma"}, oak.Specialties)
	assert.NotEmpty(t, oak.ID)
}
