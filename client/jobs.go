// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/nomad-rest-client/helper/ptr"
	"github.com/hashicorp/nomad-rest-client/wait"
	"github.com/hashicorp/nomad/api"
)

// DeploymentTerminalStatuses are the deployment statuses after which no
// further transition is expected.
var DeploymentTerminalStatuses = []string{
	api.DeploymentStatusSuccessful,
	api.DeploymentStatusFailed,
	api.DeploymentStatusCancelled,
}

// Jobs is used to query and modify jobs.
type Jobs struct {
	client *Client
}

// List returns the stubs of all jobs visible to the request.
func (j *Jobs) List(ctx context.Context, q *api.QueryOptions) ([]*api.JobListStub, *api.QueryMeta, error) {
	var resp []*api.JobListStub
	qm, err := j.client.query(ctx, "/v1/jobs", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return resp, qm, nil
}

// Info returns the full job specification of jobID.
func (j *Jobs) Info(ctx context.Context, jobID string, q *api.QueryOptions) (*api.Job, *api.QueryMeta, error) {
	var resp api.Job
	qm, err := j.client.query(ctx, "/v1/job/"+escape(jobID), q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read job %s: %w", jobID, err)
	}
	return &resp, qm, nil
}

// Exists reports whether jobID can be read. Any error, including transport
// failures, results in false.
func (j *Jobs) Exists(ctx context.Context, jobID string, q *api.QueryOptions) bool {
	if _, _, err := j.Info(ctx, jobID, q); err != nil {
		j.client.logger.Debug("job existence check failed", "job_id", jobID, "error", err)
		return false
	}
	return true
}

// Register creates or updates a job.
func (j *Jobs) Register(ctx context.Context, job *api.Job, w *api.WriteOptions) (*api.JobRegisterResponse, *api.WriteMeta, error) {
	if job == nil {
		return nil, nil, fmt.Errorf("job is required")
	}

	var resp api.JobRegisterResponse
	wm, err := j.client.write(ctx, http.MethodPost, "/v1/jobs", &api.JobRegisterRequest{Job: job}, &resp, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to register job: %w", err)
	}
	return &resp, wm, nil
}

// Deregister stops jobID. When purge is true the job is removed from the
// state immediately rather than left for garbage collection.
func (j *Jobs) Deregister(ctx context.Context, jobID string, purge bool, w *api.WriteOptions) (string, *api.WriteMeta, error) {
	path := "/v1/job/" + escape(jobID)
	if purge {
		path += "?purge=true"
	}

	var resp api.JobDeregisterResponse
	wm, err := j.client.write(ctx, http.MethodDelete, path, nil, &resp, w)
	if err != nil {
		return "", nil, fmt.Errorf("failed to deregister job %s: %w", jobID, err)
	}
	return resp.EvalID, wm, nil
}

// Allocations lists the allocations of jobID. With all set, allocations of
// previous job versions are included.
func (j *Jobs) Allocations(ctx context.Context, jobID string, all bool, q *api.QueryOptions) ([]*api.AllocationListStub, *api.QueryMeta, error) {
	q = withParam(q, "all", fmt.Sprint(all))

	var resp []*api.AllocationListStub
	qm, err := j.client.query(ctx, "/v1/job/"+escape(jobID)+"/allocations", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list allocations of job %s: %w", jobID, err)
	}
	return resp, qm, nil
}

// Deployments lists the deployments of jobID.
func (j *Jobs) Deployments(ctx context.Context, jobID string, q *api.QueryOptions) ([]*api.Deployment, *api.QueryMeta, error) {
	var resp []*api.Deployment
	qm, err := j.client.query(ctx, "/v1/job/"+escape(jobID)+"/deployments", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list deployments of job %s: %w", jobID, err)
	}
	return resp, qm, nil
}

// LatestDeployment returns the most recent deployment of jobID, or nil when
// the job has never been deployed.
func (j *Jobs) LatestDeployment(ctx context.Context, jobID string, q *api.QueryOptions) (*api.Deployment, *api.QueryMeta, error) {
	var resp *api.Deployment
	qm, err := j.client.query(ctx, "/v1/job/"+escape(jobID)+"/deployment", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read latest deployment of job %s: %w", jobID, err)
	}
	return resp, qm, nil
}

// Summary returns the per task group allocation summary of jobID.
func (j *Jobs) Summary(ctx context.Context, jobID string, q *api.QueryOptions) (*api.JobSummary, *api.QueryMeta, error) {
	var resp api.JobSummary
	qm, err := j.client.query(ctx, "/v1/job/"+escape(jobID)+"/summary", q, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read summary of job %s: %w", jobID, err)
	}
	return &resp, qm, nil
}

// Scale sets the count of a task group of jobID.
func (j *Jobs) Scale(ctx context.Context, jobID, group string, count int, message string, w *api.WriteOptions) (*api.JobRegisterResponse, *api.WriteMeta, error) {
	if group == "" {
		return nil, nil, fmt.Errorf("task group is required")
	}
	if count < 0 {
		return nil, nil, fmt.Errorf("invalid count %d", count)
	}

	req := &api.ScalingRequest{
		Count:   ptr.Int64ToPtr(int64(count)),
		Target:  map[string]string{"Job": jobID, "Group": group},
		Message: message,
	}

	var resp api.JobRegisterResponse
	wm, err := j.client.write(ctx, http.MethodPost, "/v1/job/"+escape(jobID)+"/scale", req, &resp, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scale job %s: %w", jobID, err)
	}
	return &resp, wm, nil
}

// ParseHCL converts an HCL job specification into its API representation
// using the agent's parser.
func (j *Jobs) ParseHCL(ctx context.Context, jobHCL string, canonicalize bool) (*api.Job, error) {
	req := &api.JobsParseRequest{
		JobHCL:       jobHCL,
		Canonicalize: canonicalize,
	}

	var resp api.Job
	if _, err := j.client.write(ctx, http.MethodPost, "/v1/jobs/parse", req, &resp, nil); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &resp, nil
}

// WaitForStatus blocks until jobID reports desired, settles in another
// terminal status, or timeout elapses. A non-positive timeout uses the
// configured default.
func (j *Jobs) WaitForStatus(ctx context.Context, jobID, desired string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		job, _, err := j.Info(ctx, jobID, nil)
		if err != nil {
			return "", err
		}
		return ptr.PtrToString(job.Status), nil
	}
	return wait.ForStatus(ctx, "job "+jobID, probe, desired, j.client.waitOptions(timeout, nil))
}

// WaitForDeployment blocks until the latest deployment of jobID succeeds,
// fails, is cancelled, or timeout elapses. A job without a deployment is
// treated as pending.
func (j *Jobs) WaitForDeployment(ctx context.Context, jobID string, timeout time.Duration) wait.Result {
	probe := func(ctx context.Context) (string, error) {
		d, _, err := j.LatestDeployment(ctx, jobID, nil)
		if err != nil {
			return "", err
		}
		if d == nil {
			return "", nil
		}
		return d.Status, nil
	}
	return wait.ForStatus(ctx, "deployment of job "+jobID, probe,
		api.DeploymentStatusSuccessful, j.client.waitOptions(timeout, DeploymentTerminalStatuses))
}

// withParam returns a copy of q with the extra URL parameter set.
func withParam(q *api.QueryOptions, key, value string) *api.QueryOptions {
	var out api.QueryOptions
	if q != nil {
		out = *q
	}
	params := make(map[string]string, len(out.Params)+1)
	for k, v := range out.Params {
		params[k] = v
	}
	params[key] = value
	out.Params = params
	return &out
}
