package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/deenlabs/iqra/internal/content"
	"github.com/deenlabs/iqra/internal/domain"
	"github.com/deenlabs/iqra/internal/errors"
	"github.com/deenlabs/iqra/internal/event"
	"github.com/deenlabs/iqra/internal/glossary"
	"github.com/deenlabs/iqra/internal/progression"
	"github.com/deenlabs/iqra/internal/session"
)

type Config struct {
	Router       gin.IRouter
	EventBus     *event.Bus
	Session      *session.Service
	Progression  *progression.Service
	Content      *content.Library
	Glossary     *glossary.Matcher
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type API struct {
	qs *session.Service
	ps *progression.Service
	cl *content.Library
	gm *glossary.Matcher

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		qs:     c.Session,
		ps:     c.Progression,
		cl:     c.Content,
		gm:     c.Glossary,
		redis:  c.Redis,
		prefix: c.PubsubPrefix,
	}

	v1 := c.Router.Group("/v1")
	{
		v1.POST("/quizzes", a.startQuiz)
		v1.GET("/quizzes/:id", a.getQuiz)
		v1.POST("/quizzes/:id/intro/advance", a.advanceIntro)
		v1.POST("/quizzes/:id/intro/skip", a.skipIntro)
		v1.POST("/quizzes/:id/select", a.selectOption)
		v1.POST("/quizzes/:id/place", a.placeWord)
		v1.POST("/quizzes/:id/unplace", a.clearSlot)
		v1.POST("/quizzes/:id/assign", a.assignItem)
		v1.POST("/quizzes/:id/unassign", a.unassignItem)
		v1.POST("/quizzes/:id/submit", a.submit)
		v1.POST("/quizzes/:id/advance", a.advance)
		v1.DELETE("/quizzes/:id", a.exitQuiz)

		v1.GET("/profiles/:username", a.getProfile)
		v1.GET("/lessons", a.listLessons)
		v1.GET("/modules", a.listModules)
		v1.POST("/glossary/annotate", a.annotate)
	}

	// Push notifications toward connected clients.
	c.EventBus.Subscribe(domain.EventNameStreakMilestone, func(ctx context.Context, e event.Event) error {
		return a.PublishStreakMilestone(ctx, e.(domain.EventStreakMilestone))
	})
	c.EventBus.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		return a.PublishQuizCompleted(ctx, e.(domain.EventQuizCompleted))
	})
	c.EventBus.Subscribe(domain.EventNameProfileUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishProfileUpdated(ctx, e.(domain.EventProfileUpdated))
	})

	return a
}

type startQuizRequest struct {
	Username string `json:"username"`
	LessonID string `json:"lesson_id"`
	ModuleID string `json:"module_id"`
}

func (a *API) startQuiz(c *gin.Context) {
	var req startQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.StartQuiz(c.Request.Context(), session.StartQuizRequest{
		Username: req.Username,
		LessonID: req.LessonID,
		ModuleID: req.ModuleID,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snap)
}

func (a *API) getQuiz(c *gin.Context) {
	snap, err := a.qs.GetState(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")})
	respondSnapshot(c, snap, err)
}

func (a *API) advanceIntro(c *gin.Context) {
	snap, err := a.qs.AdvanceIntro(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")})
	respondSnapshot(c, snap, err)
}

func (a *API) skipIntro(c *gin.Context) {
	snap, err := a.qs.SkipIntro(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")})
	respondSnapshot(c, snap, err)
}

type selectOptionRequest struct {
	Option int `json:"option"`
}

func (a *API) selectOption(c *gin.Context) {
	var req selectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.SelectOption(c.Request.Context(), session.SelectOptionRequest{
		SessionID: c.Param("id"),
		Option:    req.Option,
	})
	respondSnapshot(c, snap, err)
}

type placeWordRequest struct {
	Slot int    `json:"slot"`
	Word string `json:"word"`
}

func (a *API) placeWord(c *gin.Context) {
	var req placeWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.PlaceWord(c.Request.Context(), session.PlaceWordRequest{
		SessionID: c.Param("id"),
		Slot:      req.Slot,
		Word:      req.Word,
	})
	respondSnapshot(c, snap, err)
}

type clearSlotRequest struct {
	Slot int `json:"slot"`
}

func (a *API) clearSlot(c *gin.Context) {
	var req clearSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.ClearSlot(c.Request.Context(), session.ClearSlotRequest{
		SessionID: c.Param("id"),
		Slot:      req.Slot,
	})
	respondSnapshot(c, snap, err)
}

type assignItemRequest struct {
	Item   string `json:"item"`
	Column string `json:"column"`
}

func (a *API) assignItem(c *gin.Context) {
	var req assignItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.AssignItem(c.Request.Context(), session.AssignItemRequest{
		SessionID: c.Param("id"),
		Item:      req.Item,
		Column:    req.Column,
	})
	respondSnapshot(c, snap, err)
}

type unassignItemRequest struct {
	Item string `json:"item"`
}

func (a *API) unassignItem(c *gin.Context) {
	var req unassignItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	snap, err := a.qs.UnassignItem(c.Request.Context(), session.UnassignItemRequest{
		SessionID: c.Param("id"),
		Item:      req.Item,
	})
	respondSnapshot(c, snap, err)
}

func (a *API) submit(c *gin.Context) {
	snap, err := a.qs.Submit(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")})
	respondSnapshot(c, snap, err)
}

func (a *API) advance(c *gin.Context) {
	snap, err := a.qs.Advance(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")})
	respondSnapshot(c, snap, err)
}

func (a *API) exitQuiz(c *gin.Context) {
	if err := a.qs.Exit(c.Request.Context(), session.SessionRequest{SessionID: c.Param("id")}); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) getProfile(c *gin.Context) {
	p, err := a.ps.GetProfile(c.Request.Context(), progression.GetProfileRequest{
		Username: c.Param("username"),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileView(*p))
}

type lessonSummary struct {
	LessonID  string `json:"lesson_id"`
	Title     string `json:"title"`
	Topic     string `json:"topic"`
	Questions int    `json:"questions"`
}

func (a *API) listLessons(c *gin.Context) {
	lessons := a.cl.Lessons()
	out := make([]lessonSummary, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lessonSummary{
			LessonID:  l.LessonID,
			Title:     l.Title,
			Topic:     l.Topic,
			Questions: len(l.Questions),
		})
	}
	c.JSON(http.StatusOK, gin.H{"lessons": out})
}

type moduleSummary struct {
	ModuleID  string `json:"module_id"`
	Title     string `json:"title"`
	Concepts  int    `json:"concepts"`
	Questions int    `json:"questions"`
}

func (a *API) listModules(c *gin.Context) {
	modules := a.cl.Modules()
	out := make([]moduleSummary, 0, len(modules))
	for _, m := range modules {
		out = append(out, moduleSummary{
			ModuleID:  m.ModuleID,
			Title:     m.Title,
			Concepts:  len(m.Concepts),
			Questions: len(m.Questions),
		})
	}
	c.JSON(http.StatusOK, gin.H{"modules": out})
}

type annotateRequest struct {
	Text string `json:"text"`
}

func (a *API) annotate(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, errors.New(errors.CodeInvalidArgument, errors.WithCause(err)))
		return
	}

	segs := a.gm.Annotate(req.Text)
	if segs == nil {
		segs = []glossary.Segment{}
	}
	c.JSON(http.StatusOK, gin.H{"segments": segs})
}

func respondSnapshot(c *gin.Context, snap *session.Snapshot, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func abortWithError(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{"error": e})
}
