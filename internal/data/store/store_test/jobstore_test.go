package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kingcader/personal-assistant-ai-sub002/internal/config"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/redisStore"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/data/store"
	"github.com/kingcader/personal-assistant-ai-sub002/internal/domain/jobModel"
)

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	internalStore := redisStore.NewTestStore(client)
	jobStore := store.TestJobStore(internalStore)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeCrawl,
		Status:  jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			StartURL: "https://example.com/docs",
			MaxDepth: 2,
			MaxPages: 25,
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		err := jobStore.SaveJob(ctx, testJob)
		if err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}

		if retrievedJob.JobPayload.StartURL != testJob.JobPayload.StartURL {
			t.Errorf("Data mismatch! Got %s, want %s",
				retrievedJob.JobPayload.StartURL, testJob.JobPayload.StartURL)
		}
		if retrievedJob.JobType != jobModel.JobTypeCrawl {
			t.Errorf("job type lost in roundtrip: %s", retrievedJob.JobType)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		_, found := jobStore.GetJob(ctx, "never-saved")
		if found {
			t.Error("found a job that was never saved")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if _, found := jobStore.GetJob(ctx, jobID); found {
			t.Error("job still present after delete")
		}
	})
}

func TestInMemoryJobStore_Lifecycle(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	ctx := context.Background()

	job := jobModel.Job{Id: "mem-1", Status: jobModel.JobStatusQueued}
	if err := jobStore.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, found := jobStore.GetJob(ctx, "mem-1")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Fatalf("roundtrip failed: found=%v job=%+v", found, got)
	}

	jobStore.DeleteJob(ctx, "mem-1")
	if _, found := jobStore.GetJob(ctx, "mem-1"); found {
		t.Error("job still present after delete")
	}
}
