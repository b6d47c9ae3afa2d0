package stock

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/autodealer/backend/internal/domain/shared"
	"github.com/autodealer/backend/internal/domain/stock"
	csvimport "github.com/autodealer/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const stockFile = "Marque;Modèle;VIN;Année;Kilométrage;Immatriculation;Prix achat;Prix vente;Frais transport;Cost detailing;En stock\n" +
	"Renault;Clio;VF1RJA00123456789;2021;42 000;GH-456-JK;9 800,00 €;12 490;350;120,50;oui\n" +
	"Peugeot;208;;2019;;;7 500;;;;non\n"

func TestVehicleService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("creates every vehicle with its costs", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		var saved []*stock.Vehicle
		repo.On("Create", ctx, mock.AnythingOfType("*stock.Vehicle")).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*stock.Vehicle)) }).
			Return(nil)
		svc := NewVehicleService(repo, nil, true, nil)

		result, err := svc.Import(ctx, strings.NewReader(stockFile), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.Imported)
		assert.Empty(t, result.Errors)
		require.Len(t, saved, 2)

		clio := saved[0]
		assert.Equal(t, "Renault", clio.Make)
		assert.Equal(t, 42000, clio.Mileage)
		assert.Equal(t, stock.VehicleStatusInStock, clio.Status)
		assert.True(t, stock.ComputePRU(clio).Equal(decimal.RequireFromString("10270.50")), stock.ComputePRU(clio).String())
		assert.Equal(t, []any{clio.ID, saved[1].ID}, []any{result.VehicleIDs[0], result.VehicleIDs[1]})

		assert.Equal(t, stock.VehicleStatusSourcing, saved[1].Status)
		assert.Empty(t, saved[1].Costs)
	})

	t.Run("dry run saves nothing", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)

		result, err := svc.Import(ctx, strings.NewReader(stockFile), ImportOptions{DryRun: true})
		require.NoError(t, err)

		assert.True(t, result.DryRun)
		assert.Equal(t, 2, result.ValidRows)
		assert.Zero(t, result.Imported)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("one bad row rejects the file", func(t *testing.T) {
		file := "make,model,purchase_price,year,registration_plate\n" +
			"Renault,Clio,9800,2021,\n" +
			"Dacia,,5000,deux mille,AB-123-CD\n" +
			"Fiat,500,-3,2018,\n"
		repo := new(MockVehicleRepository)
		svc := NewVehicleService(repo, nil, true, nil)

		result, err := svc.Import(ctx, strings.NewReader(file), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.ValidRows)
		assert.Zero(t, result.Imported)
		assert.Equal(t, 2, result.ErrorRows)
		codes := make(map[string]string)
		for _, e := range result.Errors {
			codes[e.Column] = e.Code
		}
		assert.Equal(t, csvimport.ErrCodeRequiredField, codes["model"])
		assert.Equal(t, csvimport.ErrCodeInvalidValue, codes["year"])
		assert.Equal(t, csvimport.ErrCodeInvalidValue, codes["purchase_price"])
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("skip invalid keeps the good rows", func(t *testing.T) {
		file := "make;model;vin;purchase_price;immatriculation\n" +
			"Renault;Clio;VF1RJA00123456789;9800;\n" +
			"Renault;Megane;vf1rja00123456789;11000;\n" +
			"Dacia;Duster;;8000;!!\n" +
			"Skoda;Octavia;;14000;\n"
		repo := new(MockVehicleRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*stock.Vehicle")).Return(nil)
		svc := NewVehicleService(repo, nil, true, nil)

		result, err := svc.Import(ctx, strings.NewReader(file), ImportOptions{SkipInvalid: true})
		require.NoError(t, err)

		assert.Equal(t, 2, result.Imported)
		require.Len(t, result.Errors, 2)
		assert.Equal(t, csvimport.ErrCodeDuplicate, result.Errors[0].Code)
		assert.Equal(t, 3, result.Errors[0].Row)
		assert.Equal(t, "registration_plate", result.Errors[1].Column)
		repo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("repository failure is reported on the row", func(t *testing.T) {
		repo := new(MockVehicleRepository)
		repo.On("Create", ctx, mock.Anything).Return(errors.New("disk full")).Once()
		repo.On("Create", ctx, mock.Anything).Return(nil)
		svc := NewVehicleService(repo, nil, true, nil)

		result, err := svc.Import(ctx, strings.NewReader(stockFile), ImportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Imported)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeRejected, result.Errors[0].Code)
		assert.Equal(t, 2, result.Errors[0].Row)
	})

	t.Run("file level problems are validation errors", func(t *testing.T) {
		svc := NewVehicleService(new(MockVehicleRepository), nil, true, nil)
		for name, file := range map[string]string{
			"empty":           "",
			"missing columns": "make;model\nRenault;Clio\n",
			"no rows":         "make;model;purchase_price\n",
		} {
			_, err := svc.Import(ctx, strings.NewReader(file), ImportOptions{})
			var de *shared.DomainError
			require.True(t, errors.As(err, &de), name)
			assert.Equal(t, shared.CodeValidation, de.Code, name)
			assert.Equal(t, "file", de.Field, name)
		}
	})
}

func TestCleanAmount(t *testing.T) {
	tests := map[string]string{
		"12 500,00 €": "12500,00",
		"€1200":       "1200",
		"9 800":       "9800",
		"450.5":       "450.5",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanAmount(in), in)
	}
}

func TestParseYesNo(t *testing.T) {
	for _, raw := range []string{"oui", "OUI", "x", "1", "yes"} {
		v, ok := parseYesNo(raw)
		assert.True(t, ok && v, raw)
	}
	for _, raw := range []string{"non", "0", "no"} {
		v, ok := parseYesNo(raw)
		assert.True(t, ok && !v, raw)
	}
	_, ok := parseYesNo("peut-être")
	assert.False(t, ok)
}
