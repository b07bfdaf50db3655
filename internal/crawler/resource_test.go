package crawler_test

import (
	"context"
	"testing"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/crawler/crawlertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUsesKindSpecificField(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		kind     crawler.Kind
		record   crawler.RawRecord
		expected string
	}{
		{crawler.KindOrganization, crawler.RawRecord{"name": "organizations/123"}, "organizations/123"},
		{crawler.KindProject, crawler.RawRecord{"projectId": "acme-prod", "name": "ignored"}, "acme-prod"},
		{crawler.KindDataset, crawler.RawRecord{"datasetId": "audit_logs"}, "audit_logs"},
		{crawler.KindFolder, crawler.RawRecord{"id": "folders/42"}, "folders/42"},
		{crawler.KindBucket, crawler.RawRecord{"id": "acme-logs"}, "acme-logs"},
		{crawler.KindObject, crawler.RawRecord{"id": "acme-logs/2026/01.log"}, "acme-logs/2026/01.log"},
		{crawler.KindCloudSQLInstance, crawler.RawRecord{"name": "prod-db"}, "prod-db"},
	}

	for _, tc := range testCases {
		res, err := crawler.Default().Create(tc.kind, tc.record)
		require.NoError(t, err)

		key, err := res.Key()
		require.NoError(t, err, "kind %q", tc.kind)
		assert.Equal(t, tc.expected, key)
	}
}

func TestKeyMissingFieldFailsForEveryKind(t *testing.T) {
	t.Parallel()

	reg := crawler.Default()

	for _, kind := range reg.Kinds() {
		res, err := reg.Create(kind, crawler.RawRecord{"unrelated": "value"})
		require.NoError(t, err)

		_, err = res.Key()
		require.Error(t, err, "kind %q", kind)

		var missingErr crawler.MissingFieldError
		require.ErrorAs(t, err, &missingErr)
		assert.Equal(t, kind, missingErr.Kind)
		assert.NotEmpty(t, missingErr.Field)

		// The diagnostic must include the raw record.
		assert.Equal(t, crawler.RawRecord{"unrelated": "value"}, missingErr.Record)
		assert.Contains(t, err.Error(), "unrelated")
	}
}

func TestKeyEmptyValueFails(t *testing.T) {
	t.Parallel()

	res, err := crawler.Default().Create(crawler.KindProject, crawler.RawRecord{"projectId": ""})
	require.NoError(t, err)

	_, err = res.Key()
	require.Error(t, err)

	var missingErr crawler.MissingFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "projectId", missingErr.Field)
}

func TestAncestorsBeforeVisitationFails(t *testing.T) {
	t.Parallel()

	res, err := crawler.Default().Create(crawler.KindProject, crawler.RawRecord{"projectId": "p-1"})
	require.NoError(t, err)

	_, err = res.Ancestors()
	require.Error(t, err)

	var accessErr crawler.UninitializedAccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, crawler.KindProject, accessErr.Kind)

	_, err = res.Parent()
	require.ErrorAs(t, err, &accessErr)
}

func TestAncestorsAfterVisitation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := crawlertest.NewFakeClient()
	client.Organizations["organizations/1"] = crawler.RawRecord{"name": "organizations/1"}
	client.Projects["organizations/1"] = []crawler.RawRecord{
		{"projectId": "p-1", "lifecycleState": "ACTIVE", "projectNumber": float64(101)},
	}
	client.SQLInstances["p-1"] = []crawler.RawRecord{
		{"name": "db-1"},
	}

	visitor := newRecordingVisitor(client)

	root, err := crawler.FetchOrganization(ctx, crawler.Default(), client, "organizations/1")
	require.NoError(t, err)
	require.NoError(t, crawler.Traverse(ctx, root, visitor, nil))
	require.Empty(t, visitor.taskErrs)

	ancestors, err := root.Ancestors()
	require.NoError(t, err)
	assert.Empty(t, ancestors)

	parent, err := root.Parent()
	require.NoError(t, err)
	assert.Nil(t, parent)

	db := visitor.resourceByKey("cloudsqlinstance/db-1")
	require.NotNil(t, db)

	ancestors, err = db.Ancestors()
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	assert.Equal(t, crawler.KindOrganization, ancestors[0].Kind())
	assert.Equal(t, crawler.KindProject, ancestors[1].Kind())

	parent, err = db.Parent()
	require.NoError(t, err)
	assert.Equal(t, crawler.KindProject, parent.Kind())
}

func TestEnumerable(t *testing.T) {
	t.Parallel()

	reg := crawler.Default()

	active, err := reg.Create(crawler.KindProject, crawler.RawRecord{"projectId": "p-1", "lifecycleState": "ACTIVE"})
	require.NoError(t, err)
	assert.True(t, active.Enumerable())

	deleted, err := reg.Create(crawler.KindProject, crawler.RawRecord{"projectId": "p-2", "lifecycleState": "DELETE_REQUESTED"})
	require.NoError(t, err)
	assert.False(t, deleted.Enumerable())

	// Kinds without an enumerable predicate default to true.
	org, err := reg.Create(crawler.KindOrganization, crawler.RawRecord{"name": "organizations/1"})
	require.NoError(t, err)
	assert.True(t, org.Enumerable())
}

func TestIamPolicyIsMemoized(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := crawlertest.NewFakeClient()
	client.SetIamPolicy("p-1", crawler.Policy{"etag": "v1"})

	res, err := crawler.Default().Create(crawler.KindProject, crawler.RawRecord{"projectId": "p-1"})
	require.NoError(t, err)

	policy, err := res.IamPolicy(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, crawler.Policy{"etag": "v1"}, policy)

	// The client's underlying data changes, but the cached value must not.
	client.SetIamPolicy("p-1", crawler.Policy{"etag": "v2"})

	cached, err := res.IamPolicy(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, crawler.Policy{"etag": "v1"}, cached)

	assert.Equal(t, 1, client.CallCount("GetProjectIamPolicy/p-1"))
}

func TestFailedPolicyFetchIsNotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := crawlertest.NewFakeClient()
	client.SetIamPolicy("p-1", crawler.Policy{"etag": "v1"})
	client.PolicyErr = crawlertest.ErrNotFound

	res, err := crawler.Default().Create(crawler.KindProject, crawler.RawRecord{"projectId": "p-1"})
	require.NoError(t, err)

	_, err = res.IamPolicy(ctx, client)
	require.Error(t, err)

	// The failure left the slot empty; the next call retries and succeeds.
	client.PolicyErr = nil

	policy, err := res.IamPolicy(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, crawler.Policy{"etag": "v1"}, policy)

	assert.Equal(t, 2, client.CallCount("GetProjectIamPolicy/p-1"))
}

func TestUnsupportedPolicyCapabilityReturnsNoPolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := crawlertest.NewFakeClient()

	instance, err := crawler.Default().Create(crawler.KindComputeInstance, crawler.RawRecord{"id": "i-1"})
	require.NoError(t, err)

	policy, err := instance.IamPolicy(ctx, client)
	require.NoError(t, err)
	assert.Nil(t, policy)

	org, err := crawler.Default().Create(crawler.KindOrganization, crawler.RawRecord{"name": "organizations/1"})
	require.NoError(t, err)

	policy, err = org.StoragePolicy(ctx, client)
	require.NoError(t, err)
	assert.Nil(t, policy)

	policy, err = org.DatasetPolicy(ctx, client)
	require.NoError(t, err)
	assert.Nil(t, policy)

	// No client calls may result from unsupported capabilities.
	assert.Equal(t, 0, client.CallCount("GetOrganizationIamPolicy/organizations/1"))
}

func TestNumericField(t *testing.T) {
	t.Parallel()

	reg := crawler.Default()

	testCases := []struct {
		name     string
		record   crawler.RawRecord
		expected int64
		wantErr  bool
	}{
		{"float64", crawler.RawRecord{"projectId": "p", "projectNumber": float64(12345)}, 12345, false},
		{"int64", crawler.RawRecord{"projectId": "p", "projectNumber": int64(42)}, 42, false},
		{"string", crawler.RawRecord{"projectId": "p", "projectNumber": "67890"}, 67890, false},
		{"missing", crawler.RawRecord{"projectId": "p"}, 0, true},
		{"garbage", crawler.RawRecord{"projectId": "p", "projectNumber": "abc"}, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res, err := reg.Create(crawler.KindProject, tc.record)
			require.NoError(t, err)

			number, err := res.NumericField("projectNumber")
			if tc.wantErr {
				require.Error(t, err)

				var missingErr crawler.MissingFieldError
				require.ErrorAs(t, err, &missingErr)
				assert.Equal(t, "projectNumber", missingErr.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, number)
		})
	}
}
