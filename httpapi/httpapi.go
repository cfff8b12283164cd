// Package httpapi maps the document and season operations to HTTP routes.
//
// The actor of a request comes from the X-Actor-Id and X-Actor-Role headers
// set by the authentication gateway; see middleware.NewMetaInjectMW.
package httpapi

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"

	"github.com/code19m/errx"
	"github.com/gofiber/fiber/v2"

	"github.com/rise-and-shine/projectdocs"
	"github.com/rise-and-shine/projectdocs/docerr"
	"github.com/rise-and-shine/projectdocs/http/server/forward"
	"github.com/rise-and-shine/projectdocs/meta"
	"github.com/rise-and-shine/projectdocs/observability/metrics"
	"github.com/rise-and-shine/projectdocs/permission"
	"github.com/rise-and-shine/projectdocs/ucdef"
)

// FormFileField is the multipart field carrying the uploaded file.
const FormFileField = "file"

// Handler serves the service routes.
type Handler struct {
	svc     *projectdocs.Service
	metrics *metrics.Recorder
}

// New creates a Handler.
func New(svc *projectdocs.Service, rec *metrics.Recorder) *Handler {
	return &Handler{svc: svc, metrics: rec}
}

// Register adds the routes to r.
func (h *Handler) Register(r fiber.Router) {
	projects := r.Group("/projects/:id")

	projects.Post("/documents/:slot", recordMeta, h.attach)
	projects.Put("/documents/:slot/:index", recordMeta, h.replaceAt)
	projects.Delete("/documents/:slot", recordMeta, forward.ToUserAction(
		withActor(projectdocs.OpDetach, h.svc.Detach, func(in *projectdocs.DetachInput, a permission.Actor) {
			in.Actor = a
		}),
	))
	projects.Delete("/documents/:slot/:index", recordMeta, forward.ToUserAction(
		withActor(projectdocs.OpDeleteAt, h.svc.DeleteAt, func(in *projectdocs.DeleteAtInput, a permission.Actor) {
			in.Actor = a
		}),
	))
	projects.Post("/comments", recordMeta, forward.ToUserAction(
		withActor(projectdocs.OpAddComment, h.svc.AddComment, func(in *projectdocs.AddCommentInput, a permission.Actor) {
			in.Actor = a
		}),
	))

	r.Post("/seasons", forward.ToUserAction(
		withActor(projectdocs.OpAddSeasonChoice, h.svc.AddSeasonChoice, setSeasonActor),
	))
	r.Delete("/seasons/:name", forward.ToUserAction(
		withActor(projectdocs.OpDeleteSeasonChoice, h.svc.DeleteSeasonChoice, setSeasonActor),
	))

	r.Get("/metrics", h.metricsSnapshot)
}

func (h *Handler) attach(c *fiber.Ctx) error {
	file, err := formFile(c)
	if err != nil {
		return err
	}

	out, err := h.svc.Attach(c.UserContext(), &projectdocs.AttachInput{
		RecordID:    c.Params("id"),
		Slot:        c.Params("slot"),
		Filename:    file.name,
		ContentType: file.contentType,
		Data:        file.data,
		Actor:       actorFrom(c.UserContext()),
	})
	if err != nil {
		return errx.Wrap(err)
	}

	_, err = forward.WriteJSON(c, out)
	return errx.Wrap(err)
}

func (h *Handler) replaceAt(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return docerr.Validation("index must be a number", docerr.CodeValidationFailed, errx.D{
			"index": c.Params("index"),
		})
	}

	file, err := formFile(c)
	if err != nil {
		return err
	}

	out, err := h.svc.ReplaceAt(c.UserContext(), &projectdocs.ReplaceAtInput{
		RecordID:    c.Params("id"),
		Slot:        c.Params("slot"),
		Index:       index,
		Filename:    file.name,
		ContentType: file.contentType,
		Data:        file.data,
		Actor:       actorFrom(c.UserContext()),
	})
	if err != nil {
		return errx.Wrap(err)
	}

	_, err = forward.WriteJSON(c, out)
	return errx.Wrap(err)
}

func (h *Handler) metricsSnapshot(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	h.metrics.WriteJSON(c.Response().BodyWriter())
	return nil
}

type upload struct {
	name        string
	contentType string
	data        []byte
}

func formFile(c *fiber.Ctx) (upload, error) {
	fh, err := c.FormFile(FormFileField)
	if err != nil {
		return upload{}, docerr.Validation("multipart field \"file\" is required", docerr.CodeValidationFailed, errx.D{
			"cause": err.Error(),
		})
	}

	data, err := readAll(fh)
	if err != nil {
		return upload{}, errx.Wrap(err, errx.WithType(errx.T_Validation), errx.WithCode(docerr.CodeValidationFailed))
	}

	return upload{
		name:        filepath.Base(fh.Filename),
		contentType: fh.Header.Get(fiber.HeaderContentType),
		data:        data,
	}, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errx.Wrap(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	return data, errx.Wrap(err)
}

// recordMeta adds the project id of the route to the request metadata.
func recordMeta(c *fiber.Ctx) error {
	ctx := meta.InjectMetaToContext(c.UserContext(), map[meta.ContextKey]string{
		meta.RecordID: c.Params("id"),
	})
	c.SetUserContext(ctx)
	return c.Next()
}

func actorFrom(ctx context.Context) permission.Actor {
	return permission.Actor{
		ID:   meta.Find(ctx, meta.ActorID),
		Role: permission.Role(meta.Find(ctx, meta.ActorRole)),
	}
}

// withActor names fn as a use case that receives the actor of the request.
func withActor[I, O any](
	operationID string,
	fn func(context.Context, I) (O, error),
	set func(I, permission.Actor),
) ucdef.UserAction[I, O] {
	return ucdef.NewUserAction(operationID, func(ctx context.Context, in I) (O, error) {
		set(in, actorFrom(ctx))
		return fn(ctx, in)
	})
}

func setSeasonActor(in *projectdocs.SeasonInput, a permission.Actor) {
	in.Actor = a
}
