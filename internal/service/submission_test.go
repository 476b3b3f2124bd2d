package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norsao/frotaportal/internal/domain"
	"github.com/norsao/frotaportal/internal/gateway"
	"github.com/norsao/frotaportal/internal/numbering"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testVehicle(vin, duration, totalKm, start string) domain.VehicleDraft {
	v := domain.NewVehicleDraft()
	v.Make = "Volvo"
	v.Model = "Volvo FMX 440"
	v.VIN = vin
	v.Plate = "LD-43-21-AB"
	v.Year = "2023"
	v.Odometer = "120500"
	v.OperationType = "Construção"
	v.MonthlyKm = "6500"
	v.DurationMonths = duration
	v.TotalKm = totalKm
	v.StartDate = start
	return v
}

func testDraft(vehicles ...domain.VehicleDraft) *domain.Draft {
	return &domain.Draft{
		Client: domain.ClientDraft{
			CompanyName:  "Transportes Kwanza Lda",
			TaxID:        "123",
			Province:     "Luanda",
			Address:      "Rua da Missão 42, Luanda",
			ContactName:  "João Manuel",
			ContactRole:  "Diretor de Frota",
			ContactEmail: "joao@kwanza.ao",
			ContactPhone: "+244 923 000 111",
		},
		Vehicles: vehicles,
	}
}

func TestSubmitCreatesFullEntityGraph(t *testing.T) {
	gw := gateway.NewMemory()
	nums := numbering.NewMemory()
	svc := NewSubmissionService(gw, nums, testLogger())

	draft := testDraft(testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-01-15"))

	result, err := svc.Submit(context.Background(), draft, domain.ContractTypeCM)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEmpty(t, result.ContractNumber)
	assert.Contains(t, result.Message, result.ContractNumber)
	assert.Contains(t, result.Message, "CM")

	// Client with its primary contact.
	client, ok := gw.FindRecord(gateway.EntityClients, "nif", "123")
	require.True(t, ok)
	assert.Equal(t, "Transportes Kwanza Lda", client["nome_empresa"])
	contacts := gw.Records(gateway.EntityContacts)
	require.Len(t, contacts, 1)
	assert.Equal(t, true, contacts[0]["is_primary"])
	assert.Equal(t, client["id"], contacts[0]["cliente_id"])

	// Contract window comes from the first vehicle; km_total from the
	// per-vehicle contracted distance.
	contracts := gw.Records(gateway.EntityContracts)
	require.Len(t, contracts, 1)
	assert.Equal(t, "2027-01-15", contracts[0]["data_inicio"])
	assert.Equal(t, "2027-07-15", contracts[0]["data_fim"])
	assert.Equal(t, 6, contracts[0]["duracao_meses"])
	assert.Equal(t, 40000, contracts[0]["km_total"])
	assert.Equal(t, domain.ContractStatusAtivo, contracts[0]["status"])

	// Vehicle bound to client and contract, plus the link row.
	vehicle, ok := gw.FindRecord(gateway.EntityVehicles, "vin", "YV2RT40A8EB123456")
	require.True(t, ok)
	assert.Equal(t, client["id"], vehicle["cliente_id"])
	assert.Equal(t, contracts[0]["id"], vehicle["contrato_ativo_id"])
	links := gw.Records(gateway.EntityContractVehicles)
	require.Len(t, links, 1)
	assert.Equal(t, 40000, links[0]["km_contrato"])
	assert.Equal(t, vehicle["id"], links[0]["viatura_id"])
}

func TestSubmitReusesExistingClientWithoutRefresh(t *testing.T) {
	gw := gateway.NewMemory()
	gw.Seed(gateway.EntityClients, gateway.Record{
		"nif":          "123",
		"nome_empresa": "Nome Antigo SA",
		"provincia":    "Benguela",
		"morada":       "Morada antiga",
	})
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	draft := testDraft(testVehicle("YV2RT40A8EB123456", "12", "80000", "2027-01-15"))
	result, err := svc.Submit(context.Background(), draft, domain.ContractTypeAPV)
	require.NoError(t, err)
	require.True(t, result.Success)

	// No second client, no second primary contact, no field refresh.
	assert.Len(t, gw.Records(gateway.EntityClients), 1)
	assert.Empty(t, gw.Records(gateway.EntityContacts))
	client, _ := gw.FindRecord(gateway.EntityClients, "nif", "123")
	assert.Equal(t, "Nome Antigo SA", client["nome_empresa"])
}

func TestSubmitReusesVehicleByVINAcrossSubmissions(t *testing.T) {
	gw := gateway.NewMemory()
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())
	ctx := context.Background()

	vin := "YV2RT40A8EB123456"
	first, err := svc.Submit(ctx, testDraft(testVehicle(vin, "12", "80000", "2027-01-15")), domain.ContractTypeCM)
	require.NoError(t, err)
	require.True(t, first.Success)

	second := testDraft(testVehicle(vin, "24", "160000", "2027-02-01"))
	second.Vehicles[0].Odometer = "999999" // must not be written through
	result, err := svc.Submit(ctx, second, domain.ContractTypeCM)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.NotEqual(t, first.ContractNumber, result.ContractNumber)

	// One vehicle, two contracts, two links; only the active-contract
	// reference moved, the stored odometer stays.
	assert.Len(t, gw.Records(gateway.EntityVehicles), 1)
	assert.Len(t, gw.Records(gateway.EntityContracts), 2)
	assert.Len(t, gw.Records(gateway.EntityContractVehicles), 2)

	vehicle, _ := gw.FindRecord(gateway.EntityVehicles, "vin", vin)
	assert.Equal(t, 120500, vehicle["km_atual"])
	newContract, ok := gw.FindRecord(gateway.EntityContracts, "numero_contrato", result.ContractNumber)
	require.True(t, ok)
	assert.Equal(t, newContract["id"], vehicle["contrato_ativo_id"])
}

func TestSubmitContractWindowFromFirstVehicleOnly(t *testing.T) {
	gw := gateway.NewMemory()
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	v1 := testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-03-01")
	v2 := testVehicle("LGAX4D30XHL000001", "48", "320000", "2027-06-01")
	result, err := svc.Submit(context.Background(), testDraft(v1, v2), domain.ContractTypeCM)
	require.NoError(t, err)
	require.True(t, result.Success)

	contracts := gw.Records(gateway.EntityContracts)
	require.Len(t, contracts, 1)
	assert.Equal(t, "2027-03-01", contracts[0]["data_inicio"])
	assert.Equal(t, "2027-09-01", contracts[0]["data_fim"])
	assert.Equal(t, 6, contracts[0]["duracao_meses"])
	// Aggregate distance still sums every vehicle.
	assert.Equal(t, 360000, contracts[0]["km_total"])
	assert.Len(t, gw.Records(gateway.EntityContractVehicles), 2)
}

func TestSubmitBlankTotalKmCountsAsZero(t *testing.T) {
	gw := gateway.NewMemory()
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	v1 := testVehicle("YV2RT40A8EB123456", "12", "80000", "2027-01-15")
	v2 := testVehicle("LGAX4D30XHL000001", "12", "", "2027-01-15")
	result, err := svc.Submit(context.Background(), testDraft(v1, v2), domain.ContractTypeCM)
	require.NoError(t, err)
	require.True(t, result.Success)

	contracts := gw.Records(gateway.EntityContracts)
	require.Len(t, contracts, 1)
	assert.Equal(t, 80000, contracts[0]["km_total"])
}

func TestSubmitGeneratorFailureAbortsBeforeWrites(t *testing.T) {
	gw := gateway.NewMemory()
	nums := numbering.NewMemory()
	nums.Err = errors.New("sequência indisponível")
	svc := NewSubmissionService(gw, nums, testLogger())

	result, err := svc.Submit(context.Background(), testDraft(testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-01-15")), domain.ContractTypeCM)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "sequência indisponível")

	assert.Empty(t, gw.Records(gateway.EntityContracts))
	assert.Empty(t, gw.Records(gateway.EntityVehicles))
	assert.Empty(t, gw.Records(gateway.EntityContractVehicles))
}

func TestSubmitLinkFailureCompensatesContractAndVehicle(t *testing.T) {
	gw := gateway.NewMemory()
	gw.CreateErr[gateway.EntityContractVehicles] = errors.New("ligação recusada")
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	result, err := svc.Submit(context.Background(), testDraft(testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-01-15")), domain.ContractTypeCM)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "ligação recusada")

	// The created contract and the created vehicle are rolled back;
	// the client is master data and stays.
	assert.Empty(t, gw.Records(gateway.EntityContracts))
	assert.Empty(t, gw.Records(gateway.EntityVehicles))
	assert.Empty(t, gw.Records(gateway.EntityContractVehicles))
	assert.Len(t, gw.Records(gateway.EntityClients), 1)
}

func TestSubmitFailureRevertsActiveContractOfExistingVehicle(t *testing.T) {
	gw := gateway.NewMemory()
	gw.Seed(gateway.EntityVehicles, gateway.Record{
		"vin":               "YV2RT40A8EB123456",
		"cliente_id":        "cliente-1",
		"contrato_ativo_id": "contrato-antigo",
		"km_atual":          500,
		"status":            domain.VehicleStatusAtivo,
	})
	gw.CreateErr[gateway.EntityContractVehicles] = errors.New("ligação recusada")
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	result, err := svc.Submit(context.Background(), testDraft(testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-01-15")), domain.ContractTypeCM)
	require.NoError(t, err)
	require.False(t, result.Success)

	vehicle, ok := gw.FindRecord(gateway.EntityVehicles, "vin", "YV2RT40A8EB123456")
	require.True(t, ok)
	assert.Equal(t, "contrato-antigo", vehicle["contrato_ativo_id"])
	assert.Empty(t, gw.Records(gateway.EntityContracts))
}

func TestSubmitGatewayFailureDistinctFromNotFound(t *testing.T) {
	gw := gateway.NewMemory()
	gw.FindErr[gateway.EntityClients] = errors.New("ligação à base de dados perdida")
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())

	result, err := svc.Submit(context.Background(), testDraft(testVehicle("YV2RT40A8EB123456", "6", "40000", "2027-01-15")), domain.ContractTypeCM)
	require.NoError(t, err)
	require.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "ligação à base de dados perdida")
	// A transport failure must not trigger find-or-create.
	assert.Empty(t, gw.Records(gateway.EntityClients))
}

func TestSubmitRequiresAtLeastOneVehicle(t *testing.T) {
	svc := NewSubmissionService(gateway.NewMemory(), numbering.NewMemory(), testLogger())

	_, err := svc.Submit(context.Background(), testDraft(), domain.ContractTypeCM)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestSubmitIsNotIdempotent(t *testing.T) {
	gw := gateway.NewMemory()
	svc := NewSubmissionService(gw, numbering.NewMemory(), testLogger())
	ctx := context.Background()

	draft := testDraft(testVehicle("YV2RT40A8EB123456", "12", "80000", "2027-01-15"))
	first, err := svc.Submit(ctx, draft, domain.ContractTypeCM)
	require.NoError(t, err)
	second, err := svc.Submit(ctx, draft, domain.ContractTypeCM)
	require.NoError(t, err)

	assert.NotEqual(t, first.ContractNumber, second.ContractNumber)
	assert.Len(t, gw.Records(gateway.EntityClients), 1)
	assert.Len(t, gw.Records(gateway.EntityVehicles), 1)
	assert.Len(t, gw.Records(gateway.EntityContracts), 2)
	assert.Len(t, gw.Records(gateway.EntityContractVehicles), 2)
}
