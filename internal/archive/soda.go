// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/askap-tools/casda-mosaic/internal/creds"
	"github.com/askap-tools/casda-mosaic/internal/httputil"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// DefaultSodaURL is the CASDA cutout service base URL.
const DefaultSodaURL = "https://casda.csiro.au/casda_data_access/data/async"

// SodaClient submits cutout staging jobs and polls their status. One job
// covers both products of a candidate.
type SodaClient struct {
	Client      *http.Client
	Config      types.ArchiveConfig
	Credentials creds.Credentials
}

type sodaSubmitResponse struct {
	JobID string `json:"job_id"`
}

type sodaJobResponse struct {
	Phase   string `json:"phase"`
	Message string `json:"message,omitempty"`
	Results []struct {
		ID       string `json:"id"`
		Href     string `json:"href"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
		MD5      string `json:"md5"`
	} `json:"results"`
}

// Submit creates a staging job for the candidate's image and weight
// products, cropped to the request circle and frequency band.
func (c *SodaClient) Submit(ctx context.Context, cand types.Candidate, req types.CutoutRequest) (string, error) {
	form := url.Values{}
	form.Add("ID", cand.Image.ID)
	form.Add("ID", cand.Weight.ID)
	// POS circle radius is in degrees; the request radius is arcminutes.
	form.Set("POS", fmt.Sprintf("CIRCLE %f %f %f",
		req.Region.RA, req.Region.Dec, req.Region.Radius/60.0))
	form.Set("BAND", fmt.Sprintf("%f %f", req.Spectral.LowHz, req.Spectral.HighHz))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.Config.SodaURL+"/jobs", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", c.Config.UserAgent)
	httpReq.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)

	resp, err := httputil.DoWithRetry(ctx, c.Client, httpReq, 0)
	if err != nil {
		return "", fmt.Errorf("submitting staging job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("staging service returned HTTP %d", resp.StatusCode)
	}

	var sr sodaSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing submit response: %w", err)
	}
	if sr.JobID == "" {
		return "", fmt.Errorf("staging service returned no job id")
	}
	return sr.JobID, nil
}

// Poll fetches the current status of a staging job. Checksum sidecar files
// in the result list are dropped; the remaining artifacts carry per-product
// identifiers so the caller can pair them back to the candidate.
func (c *SodaClient) Poll(ctx context.Context, jobID string) (types.JobStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.Config.SodaURL+"/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return types.JobStatus{}, fmt.Errorf("creating poll request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.Config.UserAgent)
	httpReq.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return types.JobStatus{}, fmt.Errorf("polling job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.JobStatus{}, fmt.Errorf("staging service returned HTTP %d for job %s", resp.StatusCode, jobID)
	}

	var jr sodaJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return types.JobStatus{}, fmt.Errorf("parsing job status: %w", err)
	}

	status := types.JobStatus{State: phaseToState(jr.Phase), Message: jr.Message}
	for _, r := range jr.Results {
		if strings.Contains(r.Filename, ".checksum") {
			continue
		}
		status.Artifacts = append(status.Artifacts, types.StagedArtifact{
			ProductID: r.ID,
			URL:       r.Href,
			Filename:  r.Filename,
			Size:      r.Size,
			MD5:       r.MD5,
		})
	}
	return status, nil
}

// phaseToState maps UWS phases onto the job state machine.
func phaseToState(phase string) types.JobState {
	switch strings.ToUpper(phase) {
	case "PENDING", "QUEUED", "HELD":
		return types.JobSubmitted
	case "EXECUTING", "SUSPENDED":
		return types.JobExecuting
	case "COMPLETED":
		return types.JobReady
	default:
		return types.JobError
	}
}
