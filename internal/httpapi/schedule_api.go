package httpapi

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/or-schedule/constants"
	"github.com/joseph-ayodele/or-schedule/internal/common"
	"github.com/joseph-ayodele/or-schedule/internal/pipeline"
	"github.com/joseph-ayodele/or-schedule/internal/repository"
	"github.com/joseph-ayodele/or-schedule/internal/schedule"
)

type parseResponse struct {
	JobID      uuid.UUID         `json:"job_id"`
	Company    *string           `json:"company"`
	ORSections schedule.Sections `json:"or_sections"`
	Stats      schedule.Stats    `json:"stats"`
}

type ScheduleAPI struct {
	Router    fiber.Router
	Processor *pipeline.Processor
	Jobs      repository.ParseJobRepository // nil without a database
	Logger    *slog.Logger
}

func (api *ScheduleAPI) Register() {
	if api.Logger == nil {
		api.Logger = slog.Default()
	}

	// Parse the request body as schedule text
	api.Router.Post(
		"/parse", func(c *fiber.Ctx) error {
			ctx := c.UserContext()
			text := string(c.Body())
			if strings.TrimSpace(text) == "" {
				return ApplyErrorToResponse(c, api.Logger, "request body must contain schedule text", nil)
			}

			var hint *string
			if f := c.Query("facility"); f != "" {
				name, ok := constants.CanonicalFacility(f)
				if !ok {
					return ApplyErrorToResponse(c, api.Logger, fmt.Sprintf("unknown facility %q", f), nil)
				}
				hint = &name
			}

			out, err := api.Processor.ProcessText(ctx, c.Query("source"), text)
			if err != nil {
				return ApplyErrorToResponse(c, api.Logger, "parse failed", err)
			}
			if out.Result.Company == nil {
				out.Result.Company = hint
			}
			api.Logger.Info("http.parse.ok", "job_id", out.JobID, "entries", out.Stats.Entries)

			return ApplySuccessToResponse(c, parseResponse{
				JobID:      out.JobID,
				Company:    out.Result.Company,
				ORSections: out.Result.ORSections,
				Stats:      out.Stats,
			})
		},
	)

	api.Router.Get(
		"/jobs/:id", func(c *fiber.Ctx) error {
			id, err := uuid.Parse(c.Params("id"))
			if err != nil {
				return ApplyErrorToResponse(c, api.Logger, "job id must be a UUID", nil)
			}
			if api.Jobs == nil {
				return ApplyErrorToResponse(c, api.Logger, "job storage is not configured", common.ErrNotFound)
			}
			job, err := api.Jobs.Get(c.UserContext(), id)
			if err != nil {
				return ApplyErrorToResponse(c, api.Logger, "job not found", err)
			}
			return ApplySuccessToResponse(c, job)
		},
	)
}
