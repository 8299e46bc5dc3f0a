package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type mockSSMClient struct {
	getParameterFunc func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	putParameterFunc func(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

func (m *mockSSMClient) GetParameter(
	ctx context.Context,
	params *ssm.GetParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.GetParameterOutput, error) {
	if m.getParameterFunc != nil {
		return m.getParameterFunc(ctx, params, optFns...)
	}
	return &ssm.GetParameterOutput{}, nil
}

func (m *mockSSMClient) PutParameter(
	ctx context.Context,
	params *ssm.PutParameterInput,
	optFns ...func(*ssm.Options),
) (*ssm.PutParameterOutput, error) {
	if m.putParameterFunc != nil {
		return m.putParameterFunc(ctx, params, optFns...)
	}
	return &ssm.PutParameterOutput{}, nil
}

func TestNewStateStore(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		client        SSMAPI
		errMsg        string
		parameterName string
		wantErr       bool
	}{
		"valid inputs": {
			client:        &mockSSMClient{},
			parameterName: "/ordersync/last-run",
			wantErr:       false,
		},
		"nil client": {
			client:        nil,
			parameterName: "/ordersync/last-run",
			wantErr:       true,
			errMsg:        "ssm client is required",
		},
		"empty parameter name": {
			client:        &mockSSMClient{},
			parameterName: "",
			wantErr:       true,
			errMsg:        "parameter name is required",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := NewStateStore(tc.client, tc.parameterName)

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				require.Nil(t, store)
			} else {
				require.NoError(t, err)
				require.NotNil(t, store)
			}
		})
	}
}

func TestStateStore_LastRunTime(t *testing.T) {
	t.Parallel()

	knownTime := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)

	tests := map[string]struct {
		errMsg   string
		getFunc  func(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
		wantErr  bool
		wantTime time.Time
	}{
		"existing parameter": {
			getFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{
					Parameter: &types.Parameter{Value: aws.String(knownTime.Format(time.RFC3339))},
				}, nil
			},
			wantTime: knownTime,
		},
		"parameter not found returns zero time": {
			getFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, &types.ParameterNotFound{}
			},
			wantTime: time.Time{},
		},
		"nil parameter value returns zero time": {
			getFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{}, nil
			},
			wantTime: time.Time{},
		},
		"unparseable value": {
			getFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return &ssm.GetParameterOutput{
					Parameter: &types.Parameter{Value: aws.String("not-a-time")},
				}, nil
			},
			wantErr: true,
			errMsg:  "parsing time from parameter",
		},
		"other error is surfaced": {
			getFunc: func(_ context.Context, _ *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
				return nil, errors.New("access denied")
			},
			wantErr: true,
			errMsg:  "getting parameter from SSM",
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := NewStateStore(&mockSSMClient{getParameterFunc: tc.getFunc}, "/ordersync/last-run")
			require.NoError(t, err)

			got, err := store.LastRunTime(context.Background())

			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
			} else {
				require.NoError(t, err)
				require.Equal(t, tc.wantTime, got)
			}
		})
	}
}

func TestStateStore_SetLastRunTime(t *testing.T) {
	t.Parallel()

	runTime := time.Date(2025, 8, 15, 10, 30, 0, 0, time.UTC)

	var captured *ssm.PutParameterInput
	client := &mockSSMClient{
		putParameterFunc: func(_ context.Context, params *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
			captured = params
			return &ssm.PutParameterOutput{}, nil
		},
	}

	store, err := NewStateStore(client, "/ordersync/last-run")
	require.NoError(t, err)

	require.NoError(t, store.SetLastRunTime(context.Background(), runTime))
	require.NotNil(t, captured)
	require.Equal(t, "/ordersync/last-run", *captured.Name)
	require.Equal(t, runTime.Format(time.RFC3339), *captured.Value)
	require.True(t, *captured.Overwrite)
}

func TestStateStore_SetLastRunTimeError(t *testing.T) {
	t.Parallel()

	client := &mockSSMClient{
		putParameterFunc: func(_ context.Context, _ *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	store, err := NewStateStore(client, "/ordersync/last-run")
	require.NoError(t, err)

	err = store.SetLastRunTime(context.Background(), time.Now())
	require.Error(t, err)
	require.Contains(t, err.Error(), "putting parameter to SSM")
}
