package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/concilia-app/concilia-backend/internal/infrastructure/storage"
)

const sampleStatement = `Data,Descrição,Valor,Documento
10/03/2024,PIX JOAO DA SILVA CPF 123.456.789-00,"1500,00",DOC1
11/03/2024,TED MARIA OLIVEIRA,"2000,50",DOC2
12/03/2024,PAGAMENTO FORNECEDOR,"-350,00",DOC3
`

func TestIngestStatement_ParsesCSV(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	result, err := ing.IngestStatement([]byte(sampleStatement), "extrato.csv")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Imported)
	assert.Empty(t, result.Skipped)

	st := result.Statement
	assert.Equal(t, "extrato.csv", st.Filename)
	assert.Equal(t, storage.StatementCompleted, st.Status)
	assert.Equal(t, 3, st.TotalTransactions)
	require.NotNil(t, st.PeriodStart)
	require.NotNil(t, st.PeriodEnd)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *st.PeriodStart)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), *st.PeriodEnd)

	txns, err := repo.ListTransactionsByStatement(st.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	byDoc := make(map[string]*storage.Transaction)
	for _, txn := range txns {
		byDoc[txn.Document] = txn
	}

	pix := byDoc["DOC1"]
	require.NotNil(t, pix)
	assert.Equal(t, storage.TransactionCredit, pix.Type)
	assert.Equal(t, 1500.0, pix.Amount)
	assert.Equal(t, "JOAO DA SILVA", pix.PayerName)
	assert.Equal(t, "123.456.789-00", pix.PayerTaxID)
	assert.Equal(t, storage.ReconciliationPending, pix.Status)

	ted := byDoc["DOC2"]
	require.NotNil(t, ted)
	assert.Equal(t, "MARIA OLIVEIRA", ted.PayerName)

	debit := byDoc["DOC3"]
	require.NotNil(t, debit)
	assert.Equal(t, storage.TransactionDebit, debit.Type)
	assert.Equal(t, 350.0, debit.Amount)
}

func TestIngestStatement_EnglishHeadersAndISODates(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	csvData := "Date,Description,Amount\n2024-03-15,PIX ANA COSTA,250.75\n"

	result, err := ing.IngestStatement([]byte(csvData), "statement.csv")
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	txns, err := repo.ListTransactionsByStatement(result.Statement.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, 250.75, txns[0].Amount)
	assert.Equal(t, "ANA COSTA", txns[0].PayerName)
}

func TestIngestStatement_SkipsBadRows(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	csvData := `Data,Valor,Descrição
10/03/2024,"1500,00",PIX JOAO
not-a-date,"100,00",PIX ANA
11/03/2024,abc,PIX MARIA
12/03/2024,"200,00",TED PEDRO
`

	result, err := ing.IngestStatement([]byte(csvData), "extrato.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 3, result.Skipped[0].Line)
	assert.Contains(t, result.Skipped[0].Reason, "date")
	assert.Equal(t, 4, result.Skipped[1].Line)
	assert.Contains(t, result.Skipped[1].Reason, "amount")
}

func TestIngestStatement_ZeroAmountRowIsDebit(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	csvData := "Data,Valor,Descrição\n10/03/2024,\"0,00\",TARIFA ZERADA\n"

	result, err := ing.IngestStatement([]byte(csvData), "extrato.csv")
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	txns, err := repo.ListTransactionsByStatement(result.Statement.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, storage.TransactionDebit, txns[0].Type)
	assert.Equal(t, 0.0, txns[0].Amount)

	pending, err := repo.ListPendingCreditTransactions()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIngestStatement_Latin1Fallback(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	// "Descrição" with a Latin-1 encoded ç (0xE7) and ã (0xE3),
	// invalid as UTF-8.
	raw := []byte("Data,Valor,Descri\xe7\xe3o\n10/03/2024,\"100,00\",PIX JOAO\n")

	result, err := ing.IngestStatement(raw, "extrato.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	txns, err := repo.ListTransactionsByStatement(result.Statement.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "PIX JOAO", txns[0].Description)
}

func TestIngestStatement_RejectsUnsupportedExtension(t *testing.T) {
	ing := NewIngestor(storage.NewMockRepository(), nil)

	_, err := ing.IngestStatement([]byte("data"), "extrato.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ing.IngestStatement([]byte("data"), "extrato.ofx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngestStatement_RejectsEmptyInput(t *testing.T) {
	ing := NewIngestor(storage.NewMockRepository(), nil)

	_, err := ing.IngestStatement(nil, "extrato.csv")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ing.IngestStatement([]byte("data"), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestIngestStatement_RollsBackOnMissingDateColumn(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	_, err := ing.IngestStatement([]byte("Foo,Bar\n1,2\n"), "extrato.csv")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	statements, listErr := repo.ListStatements()
	require.NoError(t, listErr)
	assert.Empty(t, statements, "partial statement should be rolled back")
}

func TestImportReceivables(t *testing.T) {
	repo := storage.NewMockRepository()
	ing := NewIngestor(repo, nil)

	csvData := `Cliente,Valor,Vencimento,Numero_Pedido,CPF_CNPJ
Joao da Silva,"1500,00",12/03/2024,PED-001,123.456.789-00
,"100,00",13/03/2024,PED-002,
Maria Oliveira,,14/03/2024,PED-003,
Ana Costa,"250,75",,,`

	result, err := ing.ImportReceivables([]byte(csvData))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 3, result.Skipped[0].Line)
	assert.Contains(t, result.Skipped[0].Reason, "client")
	assert.Equal(t, 4, result.Skipped[1].Line)

	receivables, err := repo.ListReceivables(storage.ReceivableFilters{})
	require.NoError(t, err)
	require.Len(t, receivables, 2)

	byClient := make(map[string]*storage.Receivable)
	for _, r := range receivables {
		byClient[r.ClientName] = r
	}

	joao := byClient["Joao da Silva"]
	require.NotNil(t, joao)
	assert.Equal(t, 1500.0, joao.ExpectedAmount)
	assert.Equal(t, "PED-001", joao.OrderNumber)
	assert.Equal(t, "123.456.789-00", joao.ClientTaxID)
	require.NotNil(t, joao.DueDate)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), *joao.DueDate)
	assert.Equal(t, storage.ReceivablePending, joao.Status)

	ana := byClient["Ana Costa"]
	require.NotNil(t, ana)
	assert.Nil(t, ana.DueDate)
}

func TestParseRowAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "comma decimal", input: "1500,50", want: 1500.5},
		{name: "currency prefix", input: "R$ 1500,50", want: 1500.5},
		{name: "negative", input: "-350,00", want: -350},
		{name: "plain float", input: "250.75", want: 250.75},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRowAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
