package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/clients/videosearch"
	"github.com/NicoHurtado/prompt2course/models"
	"github.com/NicoHurtado/prompt2course/processing"
	"github.com/NicoHurtado/prompt2course/tasks"
)

// fakeGen returns canned generation results, with per-module overrides.
type fakeGen struct {
	metadata    *generation.CourseMetadata
	metadataErr error
	moduleJSON  map[int]string
	moduleErr   map[int]error
	projectErr  error
	moduleCalls []int
}

func (f *fakeGen) GenerateCourseMetadata(_ context.Context, _ generation.MetadataRequest) (*generation.CourseMetadata, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata, nil
}

func (f *fakeGen) GenerateModuleContent(_ context.Context, _ generation.CourseInfo, moduleNumber int) (string, error) {
	f.moduleCalls = append(f.moduleCalls, moduleNumber)
	if err := f.moduleErr[moduleNumber]; err != nil {
		return "", err
	}
	if raw, ok := f.moduleJSON[moduleNumber]; ok {
		return raw, nil
	}
	return moduleContentJSON(moduleNumber, 4), nil
}

func (f *fakeGen) GenerateFinalProject(_ context.Context, _ generation.CourseInfo, _ []generation.ModuleSummary) (json.RawMessage, error) {
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return json.RawMessage(`{"title":"Capstone Project","description":"Build something real"}`), nil
}

// fakeVideos returns one acceptable candidate per search. With fixedID set
// every search returns the same video, which exercises de-duplication.
type fakeVideos struct {
	fixedID string
	calls   int
}

func (f *fakeVideos) Search(_ context.Context, query string, _ int) ([]videosearch.Result, error) {
	f.calls++
	id := f.fixedID
	if id == "" {
		id = fmt.Sprintf("vid-%d", f.calls)
	}
	return []videosearch.Result{{
		VideoID:  id,
		Title:    "Complete Tutorial: " + query,
		URL:      "https://youtube.test/watch?v=" + id,
		Duration: "12:34",
	}}, nil
}

// fakeQueue records enqueued tasks instead of touching Redis.
type fakeQueue struct {
	items []queuedTask
}

type queuedTask struct {
	queue   string
	payload string
}

func (q *fakeQueue) Enqueue(_ context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	q.items = append(q.items, queuedTask{queue: queueName, payload: payloadStr})
	return nil
}

func (q *fakeQueue) pop() (queuedTask, bool) {
	if len(q.items) == 0 {
		return queuedTask{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

func moduleContentJSON(moduleNumber, chunks int) string {
	content := processing.ModuleContent{
		ModuleID:    fmt.Sprintf("module_%d", moduleNumber),
		Title:       fmt.Sprintf("Generated Module %d", moduleNumber),
		Description: fmt.Sprintf("Everything module %d covers", moduleNumber),
		Objective:   "Understand the material",
		Concepts:    []string{"concept-a", "concept-b"},
		Summary:     "A short recap",
	}
	for i := 1; i <= chunks; i++ {
		content.Chunks = append(content.Chunks, processing.ChunkSpec{
			Title:   fmt.Sprintf("Lesson %d.%d Explained", moduleNumber, i),
			Content: fmt.Sprintf("Body of lesson %d.%d", moduleNumber, i),
		})
	}
	content.Quiz = []processing.QuizSpec{{
		Question:      "What did you learn?",
		Options:       []string{"Nothing", "Everything", "Some things", "Unsure"},
		CorrectAnswer: 1,
		Explanation:   "Everything, ideally",
	}}
	raw, _ := json.Marshal(content)
	return string(raw)
}

func testMetadata() *generation.CourseMetadata {
	return &generation.CourseMetadata{
		Title:             "Intro to Databases",
		Description:       "Relational databases from the ground up",
		Introduction:      "Welcome to the course",
		Prerequisites:     []string{"Basic programming"},
		TotalModules:      3,
		ModuleList:        []string{"Relational Basics", "SQL Queries", "Indexing"},
		Topics:            []string{"tables", "queries", "indexes"},
		PodcastScript:     "MARIA: Welcome to our course overview.\nCARLOS: Glad to walk through it with you.",
		TotalSizeEstimate: "~300KB of interactive content",
	}
}

func newTestProcessor(t *testing.T) (*Processor, *fakeGen, *fakeVideos, *fakeQueue) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{}, &models.Module{}, &models.Chunk{},
		&models.Video{}, &models.Quiz{}, &models.GenerationLog{},
	))

	gen := &fakeGen{metadata: testMetadata(), moduleJSON: map[int]string{}, moduleErr: map[int]error{}}
	videos := &fakeVideos{}
	queue := &fakeQueue{}

	p := &Processor{
		DB:       db,
		Queue:    queue,
		Gen:      gen,
		Videos:   videos,
		handlers: make(map[string]TaskHandler),
	}
	return p, gen, videos, queue
}

func createTestCourse(t *testing.T, db *gorm.DB, status models.CourseStatus, totalModules int) *models.Course {
	t.Helper()
	course := &models.Course{
		UserPrompt:   "teach me databases",
		UserLevel:    models.LevelBeginner,
		Language:     "en",
		TotalModules: totalModules,
		Status:       status,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func attachMetadata(t *testing.T, db *gorm.DB, course *models.Course) {
	t.Helper()
	md := testMetadata()
	course.Title = md.Title
	course.Description = md.Description
	course.TotalModules = md.TotalModules
	course.ModuleList = md.ModuleList
	course.Topics = md.Topics
	require.NoError(t, db.Save(course).Error)
}

func taskPayload(t *testing.T, courseID string) string {
	t.Helper()
	payload, err := tasks.Marshal(tasks.MetadataTaskPayload{CourseID: courseID})
	require.NoError(t, err)
	return payload
}

func reload(t *testing.T, db *gorm.DB, course *models.Course) *models.Course {
	t.Helper()
	var fresh models.Course
	require.NoError(t, db.First(&fresh, "id = ?", course.ID).Error)
	return &fresh
}

func TestHandleMetadataGeneration(t *testing.T) {
	p, _, _, queue := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusGeneratingMetadata, 4)

	err := p.HandleMetadataGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.NoError(t, err)

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusMetadataReady, fresh.Status)
	assert.Equal(t, "Intro to Databases", fresh.Title)
	assert.Equal(t, 3, fresh.TotalModules)
	assert.Len(t, []string(fresh.ModuleList), 3)
	assert.NotEmpty(t, fresh.PodcastScript)
	// No podcast generator wired, so no audio URL.
	assert.Empty(t, fresh.PodcastAudioURL)

	require.Len(t, queue.items, 1)
	assert.Equal(t, tasks.QueueModuleOne, queue.items[0].queue)
	assert.Contains(t, queue.items[0].payload, course.ID.String())

	var logCount int64
	p.DB.Model(&models.GenerationLog{}).
		Where("course_id = ? AND action = ?", course.ID, models.ActionMetadataGeneration).
		Count(&logCount)
	assert.GreaterOrEqual(t, logCount, int64(2))
}

func TestHandleMetadataGenerationFailure(t *testing.T) {
	p, gen, _, queue := newTestProcessor(t)
	gen.metadataErr = errors.New("rate limited")
	course := createTestCourse(t, p.DB, models.StatusGeneratingMetadata, 4)

	err := p.HandleMetadataGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.Error(t, err)

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusFailed, fresh.Status)
	assert.Empty(t, queue.items)

	var errorLogs int64
	p.DB.Model(&models.GenerationLog{}).
		Where("course_id = ? AND action = ?", course.ID, models.ActionError).
		Count(&errorLogs)
	assert.Equal(t, int64(1), errorLogs)
}

func TestHandleMetadataGenerationRejectsShortModuleList(t *testing.T) {
	p, gen, _, _ := newTestProcessor(t)
	gen.metadata.ModuleList = []string{"Only", "Two"}
	course := createTestCourse(t, p.DB, models.StatusGeneratingMetadata, 4)

	err := p.HandleMetadataGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, reload(t, p.DB, course).Status)
}

func TestHandleModuleOneGeneration(t *testing.T) {
	p, _, _, queue := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)

	err := p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.NoError(t, err)

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusReady, fresh.Status)

	// Placeholder rows exist for every module position.
	var modules []models.Module
	require.NoError(t, p.DB.Where("course_id = ?", course.ID).Order("module_order").Find(&modules).Error)
	require.Len(t, modules, 3)
	assert.Equal(t, "SQL Queries", modules[1].Title)

	// Module 1 carries real content.
	var chunks []models.Chunk
	require.NoError(t, p.DB.Where("module_id = ?", modules[0].ID).Order("chunk_order").Find(&chunks).Error)
	require.Len(t, chunks, 4)
	assert.Equal(t, 1, chunks[0].ChunkOrder)
	assert.Equal(t, 4, chunks[3].ChunkOrder)
	assert.NotEmpty(t, chunks[0].Checksum)

	// A video got attached and denormalized onto the module.
	var videoCount int64
	p.DB.Model(&models.Video{}).Where("course_id = ?", course.ID).Count(&videoCount)
	assert.Greater(t, videoCount, int64(0))
	assert.NotEmpty(t, []byte(modules[0].VideoData))

	var quizCount int64
	p.DB.Model(&models.Quiz{}).Where("module_id = ?", modules[0].ID).Count(&quizCount)
	assert.Equal(t, int64(1), quizCount)

	require.Len(t, queue.items, 1)
	assert.Equal(t, tasks.QueueRemainingModules, queue.items[0].queue)
}

func TestHandleModuleOneGenerationTooFewChunks(t *testing.T) {
	p, gen, _, queue := newTestProcessor(t)
	gen.moduleJSON[1] = moduleContentJSON(1, 2)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)

	err := p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, reload(t, p.DB, course).Status)
	assert.Empty(t, queue.items)
}

func TestHandleModuleOneSingleModuleCourse(t *testing.T) {
	p, _, _, queue := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 1)
	course.Title = "One Module Wonder"
	course.ModuleList = []string{"Everything At Once"}
	require.NoError(t, p.DB.Save(course).Error)

	err := p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String()))
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, reload(t, p.DB, course).Status)
	// Nothing left to generate, so nothing is chained.
	assert.Empty(t, queue.items)
}

func TestHandleRemainingModulesPartialFailure(t *testing.T) {
	p, gen, _, _ := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)
	require.NoError(t, p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String())))

	gen.moduleErr[2] = errors.New("llm down")

	err := p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String()))
	require.NoError(t, err)

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusComplete, fresh.Status)
	require.NotNil(t, fresh.CompletedAt)
	assert.NotEmpty(t, []byte(fresh.FinalProjectData))

	// Module 3 succeeded despite module 2 failing.
	var module3 models.Module
	require.NoError(t, p.DB.First(&module3, "course_id = ? AND module_order = ?", course.ID, 3).Error)
	assert.Equal(t, int64(4), p.chunkCount(module3.ID))

	var module2 models.Module
	require.NoError(t, p.DB.First(&module2, "course_id = ? AND module_order = ?", course.ID, 2).Error)
	assert.Equal(t, int64(0), p.chunkCount(module2.ID))

	var errorLogs int64
	p.DB.Model(&models.GenerationLog{}).
		Where("course_id = ? AND action = ?", course.ID, models.ActionError).
		Count(&errorLogs)
	assert.Equal(t, int64(1), errorLogs)
}

func TestHandleRemainingModulesSkipsFilledModules(t *testing.T) {
	p, gen, _, _ := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)
	require.NoError(t, p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String())))
	require.NoError(t, p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String())))

	// A redelivered task finds every module filled and regenerates nothing.
	gen.moduleCalls = nil
	require.NoError(t, p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String())))
	assert.Empty(t, gen.moduleCalls)
}

func TestVideoUniquenessAcrossCourse(t *testing.T) {
	p, _, videos, _ := newTestProcessor(t)
	videos.fixedID = "only-video"
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)

	require.NoError(t, p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String())))
	require.NoError(t, p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String())))

	// Every search returned the same candidate; it may be attached once.
	var videoCount int64
	p.DB.Model(&models.Video{}).Where("course_id = ?", course.ID).Count(&videoCount)
	assert.Equal(t, int64(1), videoCount)
}

func TestHandleRegenerateModulesNoop(t *testing.T) {
	p, gen, _, _ := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)
	require.NoError(t, p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String())))
	require.NoError(t, p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String())))

	gen.moduleCalls = nil
	err := p.HandleRegenerateModules(context.Background(), taskPayload(t, course.ID.String()))
	require.NoError(t, err)
	assert.Empty(t, gen.moduleCalls)
	assert.Equal(t, models.StatusComplete, reload(t, p.DB, course).Status)
}

func TestHandleRegenerateModulesBackfill(t *testing.T) {
	p, gen, _, _ := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusMetadataReady, 3)
	attachMetadata(t, p.DB, course)
	require.NoError(t, p.HandleModuleOneGeneration(context.Background(), taskPayload(t, course.ID.String())))

	// Module 2 failed during the remaining-modules stage.
	gen.moduleErr[2] = errors.New("llm down")
	require.NoError(t, p.HandleRemainingModules(context.Background(), taskPayload(t, course.ID.String())))

	fresh := reload(t, p.DB, course)
	require.Equal(t, models.StatusComplete, fresh.Status)

	delete(gen.moduleErr, 2)
	gen.moduleCalls = nil
	require.NoError(t, p.HandleRegenerateModules(context.Background(), taskPayload(t, course.ID.String())))

	// Only the missing module was regenerated.
	assert.Equal(t, []int{2}, gen.moduleCalls)

	var module2 models.Module
	require.NoError(t, p.DB.First(&module2, "course_id = ? AND module_order = ?", course.ID, 2).Error)
	assert.Equal(t, int64(4), p.chunkCount(module2.ID))
	assert.Equal(t, models.StatusComplete, reload(t, p.DB, course).Status)
}

func TestHandleRegenerateModulesResurrectsFailedCourse(t *testing.T) {
	p, _, _, _ := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusFailed, 2)
	attachMetadata(t, p.DB, course)
	course = reload(t, p.DB, course)
	course.Status = models.StatusFailed
	course.TotalModules = 2
	require.NoError(t, p.DB.Save(course).Error)

	require.NoError(t, p.HandleRegenerateModules(context.Background(), taskPayload(t, course.ID.String())))

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusComplete, fresh.Status)
	require.NotNil(t, fresh.CompletedAt)

	var modules []models.Module
	require.NoError(t, p.DB.Where("course_id = ?", course.ID).Find(&modules).Error)
	require.Len(t, modules, 2)
	for _, m := range modules {
		assert.Equal(t, int64(4), p.chunkCount(m.ID))
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	p, _, _, queue := newTestProcessor(t)
	course := createTestCourse(t, p.DB, models.StatusGeneratingMetadata, 4)

	require.NoError(t, queue.Enqueue(context.Background(), tasks.QueueCourseMetadata,
		tasks.MetadataTaskPayload{CourseID: course.ID.String()}))

	// Drain the queue the way the worker loop would.
	for {
		item, ok := queue.pop()
		if !ok {
			break
		}
		var err error
		switch item.queue {
		case tasks.QueueCourseMetadata:
			err = p.HandleMetadataGeneration(context.Background(), item.payload)
		case tasks.QueueModuleOne:
			err = p.HandleModuleOneGeneration(context.Background(), item.payload)
		case tasks.QueueRemainingModules:
			err = p.HandleRemainingModules(context.Background(), item.payload)
		default:
			t.Fatalf("unexpected queue %s", item.queue)
		}
		require.NoError(t, err)
	}

	fresh := reload(t, p.DB, course)
	assert.Equal(t, models.StatusComplete, fresh.Status)
	require.NotNil(t, fresh.CompletedAt)
	assert.False(t, fresh.CompletedAt.Before(fresh.CreatedAt))

	var modules []models.Module
	require.NoError(t, p.DB.Where("course_id = ?", course.ID).Order("module_order").Find(&modules).Error)
	require.Len(t, modules, 3)
	for _, m := range modules {
		assert.GreaterOrEqual(t, p.chunkCount(m.ID), int64(4))
	}

	var completionLogs int64
	p.DB.Model(&models.GenerationLog{}).
		Where("course_id = ? AND action = ?", course.ID, models.ActionCompletion).
		Count(&completionLogs)
	assert.Equal(t, int64(1), completionLogs)
}
