package worker

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/NicoHurtado/prompt2course/clients/generation"
	"github.com/NicoHurtado/prompt2course/models"
	"github.com/NicoHurtado/prompt2course/processing"
)

// metadataRequest builds the generation request from the course inputs.
func metadataRequest(course *models.Course) generation.MetadataRequest {
	return generation.MetadataRequest{
		Prompt:    course.UserPrompt,
		Level:     course.UserLevel,
		Interests: course.UserInterests,
		Language:  course.Language,
	}
}

// courseInfo builds the metadata digest passed to content generation.
func courseInfo(course *models.Course) generation.CourseInfo {
	return generation.CourseInfo{
		Title:       course.Title,
		Description: course.Description,
		Level:       course.UserLevel,
		Language:    course.Language,
		ModuleList:  course.ModuleList,
		Topics:      course.Topics,
	}
}

func clampTopics(topics []string) []string {
	if len(topics) > models.MaxTopics {
		return topics[:models.MaxTopics]
	}
	return topics
}

// setStatus advances the course state machine. Invalid transitions are
// logged but still applied: the pipeline is the single writer and redelivery
// may legitimately replay a stage.
func (p *Processor) setStatus(course *models.Course, next models.CourseStatus) {
	if course.Status != next && !course.Status.CanTransitionTo(next) {
		log.Printf("Course %s: unusual status transition %s -> %s", course.ID, course.Status, next)
	}
	course.Status = next
	if err := p.DB.Model(course).Update("status", next).Error; err != nil {
		log.Printf("Error updating status for course %s: %v", course.ID, err)
	}
}

// failCourse marks the course FAILED and records the error.
func (p *Processor) failCourse(course *models.Course, message string, start time.Time) {
	p.setStatus(course, models.StatusFailed)
	duration := time.Since(start).Seconds()
	p.logGeneration(course.ID.String(), models.ActionError, message, nil, &duration)
}

// logGeneration appends one audit row. Logging failures are never allowed to
// disturb the pipeline.
func (p *Processor) logGeneration(courseID, action, message string, details map[string]interface{}, durationSeconds *float64) {
	id, err := uuid.Parse(courseID)
	if err != nil {
		log.Printf("Error parsing course id %q for log entry: %v", courseID, err)
		return
	}
	entry := models.GenerationLog{
		CourseID:        id,
		Action:          action,
		Message:         message,
		DurationSeconds: durationSeconds,
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}
	if err := p.DB.Create(&entry).Error; err != nil {
		log.Printf("Error writing generation log for course %s: %v", courseID, err)
	}
}

// ensurePlaceholderModules creates a row for every module position so course
// navigation is well-defined before content exists.
func (p *Processor) ensurePlaceholderModules(course *models.Course) error {
	for moduleNumber := 1; moduleNumber <= course.TotalModules; moduleNumber++ {
		var existing models.Module
		if p.DB.Select("id").First(&existing, "course_id = ? AND module_order = ?", course.ID, moduleNumber).Error == nil {
			continue
		}

		title := fmt.Sprintf("Module %d", moduleNumber)
		if moduleNumber <= len(course.ModuleList) {
			title = course.ModuleList[moduleNumber-1]
		}
		module := models.Module{
			CourseID:    course.ID,
			ModuleID:    fmt.Sprintf("module_%d", moduleNumber),
			ModuleOrder: moduleNumber,
			Title:       title,
			Description: fmt.Sprintf("Content for module %d is being generated", moduleNumber),
		}
		if err := p.DB.Create(&module).Error; err != nil {
			return err
		}
	}
	return nil
}

// generateModuleContent runs the module content procedure: request plus the
// tolerant parse chain. The result is always structurally valid.
func (p *Processor) generateModuleContent(ctx context.Context, course *models.Course, moduleNumber int) (*processing.ModuleContent, error) {
	raw, err := p.Gen.GenerateModuleContent(ctx, courseInfo(course), moduleNumber)
	if err != nil {
		return nil, err
	}
	return processing.ParseModuleContent(raw, courseInfo(course), moduleNumber), nil
}

// generateAndPersistModule fills one module with generated content, reusing
// an existing placeholder row when present.
func (p *Processor) generateAndPersistModule(ctx context.Context, course *models.Course, moduleNumber int, usedVideos map[string]bool) error {
	content, err := p.generateModuleContent(ctx, course, moduleNumber)
	if err != nil {
		return err
	}
	if err := processing.ValidateModuleContent(content); err != nil {
		return err
	}

	var module models.Module
	if p.DB.First(&module, "course_id = ? AND module_order = ?", course.ID, moduleNumber).Error != nil {
		module = models.Module{
			CourseID:    course.ID,
			ModuleID:    fmt.Sprintf("module_%d", moduleNumber),
			ModuleOrder: moduleNumber,
		}
		if err := p.DB.Create(&module).Error; err != nil {
			return err
		}
	}
	return p.persistModuleContent(ctx, course, &module, content, usedVideos)
}

// persistModuleContent writes the module fields, its chunks with attached
// videos, and its quiz. Chunk order is normalized to be contiguous from 1.
func (p *Processor) persistModuleContent(ctx context.Context, course *models.Course, module *models.Module, content *processing.ModuleContent, usedVideos map[string]bool) error {
	if content.ModuleID != "" {
		module.ModuleID = content.ModuleID
	}
	if content.Title != "" {
		module.Title = content.Title
	}
	if content.Description != "" {
		module.Description = content.Description
	}
	if content.Objective != "" {
		module.Objective = content.Objective
	}
	module.Concepts = content.Concepts
	module.Summary = content.Summary
	module.PracticalExercise = datatypes.JSON(content.PracticalExercise)
	module.Resources = datatypes.JSON(content.Resources)
	if err := p.DB.Save(module).Error; err != nil {
		return err
	}

	info := courseInfo(course)
	var firstVideo *models.Video
	for i, spec := range content.Chunks {
		chunk := models.Chunk{
			ModuleID:    module.ID,
			ChunkID:     spec.ChunkID,
			ChunkOrder:  i + 1,
			TotalChunks: len(content.Chunks),
			Title:       spec.Title,
			Content:     spec.Content,
			Checksum:    spec.Checksum,
		}
		if chunk.ChunkID == "" {
			chunk.ChunkID = fmt.Sprintf("%s_chunk_%d", module.ModuleID, i+1)
		}
		if chunk.Checksum == "" {
			chunk.Checksum = fmt.Sprintf("%x", md5.Sum([]byte(spec.Content)))
		}
		if err := p.DB.Create(&chunk).Error; err != nil {
			return err
		}

		// Video attachment is best-effort and never fails the module.
		found, err := processing.FindVideoForChunk(ctx, p.Videos, spec, info, usedVideos)
		if err != nil {
			log.Printf("Error searching video for chunk %s: %v", chunk.ChunkID, err)
			p.logGeneration(course.ID.String(), models.ActionVideoSearch,
				"Video search failed: "+err.Error(),
				map[string]interface{}{"chunk_id": chunk.ChunkID}, nil)
			continue
		}
		if found == nil {
			continue
		}

		video := models.Video{
			ChunkID:      chunk.ID,
			CourseID:     course.ID,
			VideoID:      found.VideoID,
			Title:        found.Title,
			URL:          found.URL,
			EmbedURL:     found.EmbedURL,
			ThumbnailURL: found.ThumbnailURL,
			Duration:     found.Duration,
			ViewCount:    found.ViewCount,
		}
		if err := p.DB.Create(&video).Error; err != nil {
			// The unique (course_id, video_id) index is the backstop for
			// concurrent regeneration; losing the race just loses the video.
			log.Printf("Error saving video %s for chunk %s: %v", found.VideoID, chunk.ChunkID, err)
			continue
		}
		if firstVideo == nil {
			firstVideo = &video
		}
	}

	if firstVideo != nil {
		if raw, err := json.Marshal(firstVideo); err == nil {
			if err := p.DB.Model(module).Update("video_data", datatypes.JSON(raw)).Error; err != nil {
				log.Printf("Error saving primary video for module %s: %v", module.ModuleID, err)
			}
		}
	}

	for _, q := range content.Quiz {
		quiz := models.Quiz{
			ModuleID:      module.ID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if err := p.DB.Create(&quiz).Error; err != nil {
			return err
		}
	}
	return nil
}

// chunkCount reports how many chunks a module owns.
func (p *Processor) chunkCount(moduleID interface{}) int64 {
	var count int64
	p.DB.Model(&models.Chunk{}).Where("module_id = ?", moduleID).Count(&count)
	return count
}

// collectUsedVideoIDs scans persisted state for every video id already used
// in the course: the Video rows plus each module's denormalized video_data.
func (p *Processor) collectUsedVideoIDs(course *models.Course) map[string]bool {
	used := map[string]bool{}

	var ids []string
	p.DB.Model(&models.Video{}).Where("course_id = ?", course.ID).Pluck("video_id", &ids)
	for _, id := range ids {
		used[id] = true
	}

	var modules []models.Module
	p.DB.Select("video_data").Where("course_id = ?", course.ID).Find(&modules)
	for _, m := range modules {
		if len(m.VideoData) == 0 {
			continue
		}
		var data struct {
			VideoID string `json:"video_id"`
		}
		if err := json.Unmarshal(m.VideoData, &data); err == nil && data.VideoID != "" {
			used[data.VideoID] = true
		}
	}
	return used
}

// purgeModuleContent deletes a module's chunks, their videos, and its quiz,
// keeping the module row itself for reuse.
func (p *Processor) purgeModuleContent(course *models.Course, moduleNumber int) error {
	var module models.Module
	if p.DB.First(&module, "course_id = ? AND module_order = ?", course.ID, moduleNumber).Error != nil {
		return nil
	}

	var chunkIDs []string
	p.DB.Model(&models.Chunk{}).Where("module_id = ?", module.ID).Pluck("id", &chunkIDs)
	if len(chunkIDs) > 0 {
		if err := p.DB.Where("chunk_id IN ?", chunkIDs).Delete(&models.Video{}).Error; err != nil {
			return err
		}
	}
	if err := p.DB.Where("module_id = ?", module.ID).Delete(&models.Chunk{}).Error; err != nil {
		return err
	}
	if err := p.DB.Where("module_id = ?", module.ID).Delete(&models.Quiz{}).Error; err != nil {
		return err
	}
	return p.DB.Model(&module).Update("video_data", nil).Error
}

// generateFinalProject builds the capstone from every persisted module. Its
// failure is logged and swallowed; the course completes without a project.
func (p *Processor) generateFinalProject(ctx context.Context, course *models.Course) {
	var modules []models.Module
	if err := p.DB.Where("course_id = ?", course.ID).Order("module_order").Find(&modules).Error; err != nil {
		log.Printf("Error loading modules for final project of course %s: %v", course.ID, err)
		return
	}

	summaries := make([]generation.ModuleSummary, 0, len(modules))
	for _, m := range modules {
		summaries = append(summaries, generation.ModuleSummary{
			Title:       m.Title,
			Description: m.Description,
			Concepts:    m.Concepts,
		})
	}

	project, err := p.Gen.GenerateFinalProject(ctx, courseInfo(course), summaries)
	if err != nil {
		log.Printf("Error generating final project for course %s: %v", course.ID, err)
		p.logGeneration(course.ID.String(), models.ActionError,
			"Final project generation failed: "+err.Error(), nil, nil)
		return
	}
	course.FinalProjectData = datatypes.JSON(project)
}
