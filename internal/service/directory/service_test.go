package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServiceValidation(t *testing.T) {
	svc := New(nil)
	ctx := context.Background()

	var ve ValidationError

	_, err := svc.CreateService(ctx, "   ", "", 0)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = svc.CreateService(ctx, "", "", 0)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = svc.CreateService(ctx, "Plumbing", "", -1)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "base_paise", ve.Field)
}

func TestRegisterWorkerValidation(t *testing.T) {
	svc := New(nil)

	var ve ValidationError
	_, err := svc.RegisterWorker(context.Background(), " \t ", "")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestRegisterCustomerValidation(t *testing.T) {
	svc := New(nil)

	var ve ValidationError
	_, err := svc.RegisterCustomer(context.Background(), "", "", "")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}
