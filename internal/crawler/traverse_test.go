package crawler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/gruntwork-io/cloud-inventory/internal/crawler"
	"github.com/gruntwork-io/cloud-inventory/internal/crawler/crawlertest"
	"github.com/gruntwork-io/cloud-inventory/internal/errors"
	"github.com/gruntwork-io/cloud-inventory/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOrgClient builds a fake client with an organization and two projects: an active one with a
// Cloud SQL instance, and one pending deletion whose listings must never be reached.
func newOrgClient() *crawlertest.FakeClient {
	client := crawlertest.NewFakeClient()
	client.Organizations["organizations/123"] = crawler.RawRecord{"name": "organizations/123"}
	client.Projects["organizations/123"] = []crawler.RawRecord{
		{"projectId": "project-a", "lifecycleState": "ACTIVE", "projectNumber": float64(101)},
		{"projectId": "project-b", "lifecycleState": "DELETE_REQUESTED", "projectNumber": float64(102)},
	}
	client.SQLInstances["project-a"] = []crawler.RawRecord{
		{"name": "db-a-1"},
	}
	client.SQLInstances["project-b"] = []crawler.RawRecord{
		{"name": "db-b-1"},
	}

	return client
}

func traverseOrg(t *testing.T, client *crawlertest.FakeClient, visitor *recordingVisitor) {
	t.Helper()

	ctx := context.Background()

	root, err := crawler.FetchOrganization(ctx, crawler.Default(), client, "organizations/123")
	require.NoError(t, err)
	require.NoError(t, crawler.Traverse(ctx, root, visitor, nil))
}

func TestVisitIsPreOrderAndExactlyOnce(t *testing.T) {
	t.Parallel()

	client := newOrgClient()
	visitor := newRecordingVisitor(client)

	traverseOrg(t, client, visitor)
	require.Empty(t, visitor.taskErrs)

	visited := visitor.visitedKeys()

	// Every resource is visited exactly once.
	seen := make(map[string]int)
	for _, key := range visited {
		seen[key]++
	}

	for key, count := range seen {
		assert.Equal(t, 1, count, "resource %s visited more than once", key)
	}

	// The organization is visited before any project, and each project before its children.
	assert.Equal(t, "organization/organizations/123", visited[0])
	assert.Less(t,
		indexOf(t, visited, "project/project-a"),
		indexOf(t, visited, "cloudsqlinstance/db-a-1"),
	)
}

func TestLeafChildrenInlineNonLeafChildrenDispatched(t *testing.T) {
	t.Parallel()

	client := newOrgClient()
	client.Folders["organizations/123"] = []crawler.RawRecord{
		{"id": "folders/1"},
		{"id": "folders/2"},
	}

	visitor := newRecordingVisitor(client)
	visitor.collectDispatch()

	traverseOrg(t, client, visitor)

	// Folders are leaves: both were visited inline before any dispatched task ran.
	visited := visitor.visitedKeys()
	assert.Contains(t, visited, "folder/folders/1")
	assert.Contains(t, visited, "folder/folders/2")
	assert.NotContains(t, visited, "project/project-a")
	assert.NotContains(t, visited, "project/project-b")

	// Projects are non-leaf: one dispatch each, never an inline traversal.
	assert.Equal(t, 2, visitor.dispatchCount())

	errs := visitor.runPending()
	assert.Empty(t, errs)
	assert.Contains(t, visitor.visitedKeys(), "project/project-a")
	assert.Contains(t, visitor.visitedKeys(), "project/project-b")
}

func TestDeletionRequestedProjectEnumeratesNoChildren(t *testing.T) {
	t.Parallel()

	client := newOrgClient()
	visitor := newRecordingVisitor(client)

	traverseOrg(t, client, visitor)
	require.Empty(t, visitor.taskErrs)

	visited := visitor.visitedKeys()

	// Project B itself is visited, but none of its children are.
	assert.Contains(t, visited, "project/project-b")
	assert.Contains(t, visited, "cloudsqlinstance/db-a-1")
	assert.NotContains(t, visited, "cloudsqlinstance/db-b-1")

	// And no listing calls were made on its behalf.
	assert.Equal(t, 1, client.CallCount("IterCloudSQLInstances/project-a"))
	assert.Equal(t, 0, client.CallCount("IterCloudSQLInstances/project-b"))
	assert.Equal(t, 0, client.CallCount("IterComputeInstances/project-b"))
}

func TestListingErrorIsTaggedAndIsolated(t *testing.T) {
	t.Parallel()

	client := newOrgClient()
	client.SQLErr = errors.New("cloudsql api unavailable")
	client.SQLErrProject = "project-a"

	visitor := newRecordingVisitor(client)

	pool := worker.NewWorkerPool(4)
	visitor.dispatch = func(task crawler.Task) {
		pool.Submit(worker.Task(task))
	}

	traverseOrg(t, client, visitor)

	err := pool.Wait()
	require.Error(t, err)

	var crawlErr crawler.CrawlError
	require.ErrorAs(t, err, &crawlErr)
	assert.Equal(t, crawler.ResourceKey{Kind: crawler.KindProject, ID: "project-a"}, crawlErr.Key)
	assert.Equal(t, crawler.KindCloudSQLInstance, crawlErr.ChildKind)
	assert.True(t, errors.Is(err, client.SQLErr))

	// Project B was dispatched independently and is still visited.
	assert.Contains(t, visitor.visitedKeys(), "project/project-b")
}

func TestTraverseTwiceFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newOrgClient()
	visitor := newRecordingVisitor(client)

	root, err := crawler.FetchOrganization(ctx, crawler.Default(), client, "organizations/123")
	require.NoError(t, err)

	require.NoError(t, crawler.Traverse(ctx, root, visitor, nil))

	err = crawler.Traverse(ctx, root, visitor, nil)
	require.Error(t, err)

	var visitedErr crawler.AlreadyVisitedError
	require.ErrorAs(t, err, &visitedErr)
}

func TestAncestorChainEqualsTraverseArgument(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := crawlertest.NewFakeClient()
	client.Organizations["organizations/9"] = crawler.RawRecord{"name": "organizations/9"}

	reg := crawler.Default()

	fakeParent, err := reg.Create(crawler.KindFolder, crawler.RawRecord{"id": "folders/7"})
	require.NoError(t, err)

	res, err := reg.Create(crawler.KindComputeInstance, crawler.RawRecord{"id": "i-1"})
	require.NoError(t, err)

	visitor := newRecordingVisitor(client)
	chain := []*crawler.Resource{fakeParent}

	require.NoError(t, crawler.Traverse(ctx, res, visitor, chain))

	ancestors, err := res.Ancestors()
	require.NoError(t, err)
	assert.Equal(t, chain, ancestors)

	parent, err := res.Parent()
	require.NoError(t, err)
	assert.Same(t, fakeParent, parent)
}

func TestConcurrentCrawlVisitsEverythingOnce(t *testing.T) {
	t.Parallel()

	client := crawlertest.NewFakeClient()
	client.Organizations["organizations/123"] = crawler.RawRecord{"name": "organizations/123"}

	var projects []crawler.RawRecord

	for i := range 20 {
		projectID := "project-" + string(rune('a'+i))
		projects = append(projects, crawler.RawRecord{
			"projectId":      projectID,
			"lifecycleState": "ACTIVE",
			"projectNumber":  float64(100 + i),
		})
		client.SQLInstances[projectID] = []crawler.RawRecord{
			{"name": projectID + "-db"},
		}
		client.Instances[projectID] = []crawler.RawRecord{
			{"id": projectID + "-vm"},
		}
	}

	client.Projects["organizations/123"] = projects

	visitor := newRecordingVisitor(client)

	var mu sync.Mutex

	pool := worker.NewWorkerPool(8)
	visitor.dispatch = func(task crawler.Task) {
		mu.Lock()
		defer mu.Unlock()

		pool.Submit(worker.Task(task))
	}

	traverseOrg(t, client, visitor)
	require.NoError(t, pool.Wait())

	visited := visitor.visitedKeys()

	// 1 org + 20 projects + 20 sql instances + 20 compute instances.
	require.Len(t, visited, 61)

	seen := make(map[string]struct{}, len(visited))
	for _, key := range visited {
		_, dup := seen[key]
		require.False(t, dup, "resource %s visited more than once", key)
		seen[key] = struct{}{}
	}
}

func indexOf(t *testing.T, keys []string, key string) int {
	t.Helper()

	for i, k := range keys {
		if k == key {
			return i
		}
	}

	t.Fatalf("key %s not found in %v", key, keys)

	return -1
}
