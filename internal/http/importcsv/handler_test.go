package importcsv_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/bonsai/internal/auth"
	"github.com/MrJamesThe3rd/bonsai/internal/http/importcsv"
	"github.com/MrJamesThe3rd/bonsai/internal/importer"
	"github.com/MrJamesThe3rd/bonsai/internal/transaction"
)

const statement = `Data mov.;Descrição;Montante
30-01-2026;GALP AREIAS;-42,10
28-01-2026;SALARIO;1.500,00
`

type fixture struct {
	router    http.Handler
	suggester *importer.MockSuggester
	repo      *transaction.MockRepository
	linker    *transaction.MockLinker
}

func newFixture(t *testing.T, userID uuid.UUID) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		suggester: importer.NewMockSuggester(ctrl),
		repo:      transaction.NewMockRepository(ctrl),
		linker:    transaction.NewMockLinker(ctrl),
	}

	h := importcsv.NewHandler(
		importer.NewService(f.suggester),
		transaction.NewService(f.repo, f.linker),
		1<<20,
	)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUserID(req.Context(), userID)))
		})
	})
	h.Routes(r)
	f.router = r

	return f
}

func upload(t *testing.T, h http.Handler, bank, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if bank != "" {
		require.NoError(t, mw.WriteField("bank", bank))
	}

	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandler_Preview(t *testing.T) {
	f := newFixture(t, uuid.New())
	f.suggester.EXPECT().Suggest(gomock.Any(), "GALP AREIAS").Return(transaction.CategoryGas, nil)

	rec := upload(t, f.router, "", statement)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		Bank    string `json:"bank"`
		Entries []struct {
			Merchant string  `json:"merchant"`
			Amount   float64 `json:"amount"`
			Category string  `json:"category"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, "cgd", got.Bank)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "GALP AREIAS", got.Entries[0].Merchant)
	assert.Equal(t, 42.10, got.Entries[0].Amount)
	assert.Equal(t, "gas", got.Entries[0].Category)
}

func TestHandler_Preview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		bank       string
		content    string
		wantStatus int
	}{
		{name: "UnknownBank", bank: "millennium", content: statement, wantStatus: http.StatusBadRequest},
		{name: "NotAStatement", content: "hello;world\n1;2\n", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, uuid.New())

			rec := upload(t, f.router, tt.bank, tt.content)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestHandler_Preview_MissingFile(t *testing.T) {
	f := newFixture(t, uuid.New())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("bank", "cgd"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Confirm(t *testing.T) {
	userID := uuid.New()
	f := newFixture(t, userID)

	f.repo.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			assert.Equal(t, "GALP AREIAS", tx.Merchant)
			assert.Equal(t, userID, tx.UserID)
			tx.ID = uuid.New()
			return nil
		})
	f.linker.EXPECT().AppendTransaction(gomock.Any(), userID, gomock.Any()).Return(nil)

	body := `{"entries":[
		{"merchant":"GALP AREIAS","amount":42.1,"category":"gas","date":"2026-01-30T00:00:00Z"},
		{"merchant":"","amount":5,"category":"other","date":"2026-01-29T00:00:00Z"}
	]}`

	req := httptest.NewRequest(http.MethodPost, "/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got struct {
		Imported     int              `json:"imported"`
		Transactions []map[string]any `json:"transactions"`
		Rejected     []struct {
			Index  int               `json:"index"`
			Fields map[string]string `json:"fields"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	assert.Equal(t, 1, got.Imported)
	require.Len(t, got.Transactions, 1)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, 1, got.Rejected[0].Index)
	assert.Contains(t, got.Rejected[0].Fields, "merchant")
}
