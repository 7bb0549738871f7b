package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/NicoHurtado/prompt2course/models"
	"github.com/NicoHurtado/prompt2course/processing"
	"github.com/NicoHurtado/prompt2course/tasks"
)

// HandleMetadataGeneration processes tasks from QueueCourseMetadata.
//
// It generates the full course structure, synthesizes the podcast when a
// script came back, and chains to module-1 generation. A metadata failure
// leaves the course FAILED; a podcast failure only loses the audio.
func (p *Processor) HandleMetadataGeneration(ctx context.Context, payload string) error {
	var task tasks.MetadataTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	start := time.Now()
	log.Printf("Processing metadata for course %s", task.CourseID)

	var course models.Course
	if err := p.DB.First(&course, "id = ?", task.CourseID).Error; err != nil {
		return err
	}

	p.setStatus(&course, models.StatusGeneratingMetadata)
	p.logGeneration(course.ID.String(), models.ActionMetadataGeneration, "Starting metadata generation", nil, nil)

	metadata, err := p.Gen.GenerateCourseMetadata(ctx, metadataRequest(&course))
	if err == nil {
		err = processing.ValidateCourseMetadata(metadata)
	}
	if err != nil {
		p.failCourse(&course, "Metadata generation failed: "+err.Error(), start)
		return err
	}

	course.Title = metadata.Title
	course.Description = metadata.Description
	course.Introduction = metadata.Introduction
	course.Prerequisites = metadata.Prerequisites
	course.TotalModules = processing.ClampTotalModules(metadata.TotalModules)
	course.ModuleList = metadata.ModuleList
	course.Topics = clampTopics(metadata.Topics)
	course.PodcastScript = metadata.PodcastScript
	course.TotalSizeEstimate = metadata.TotalSizeEstimate

	// Podcast synthesis is best-effort: the course proceeds without audio.
	if course.PodcastScript != "" && p.Podcast != nil {
		podcast, podcastErr := p.Podcast.Generate(ctx, course.PodcastScript, course.CourseID)
		if podcastErr != nil {
			log.Printf("Error generating podcast for course %s: %v", course.ID, podcastErr)
			p.logGeneration(course.ID.String(), models.ActionError,
				"Podcast generation failed: "+podcastErr.Error(), nil, nil)
		} else {
			course.PodcastAudioURL = podcast.AudioURL
			p.logGeneration(course.ID.String(), models.ActionAudioGeneration,
				"Podcast generated successfully",
				map[string]interface{}{"duration": podcast.DurationSeconds, "segments": podcast.SegmentCount}, nil)
		}
	}

	course.Status = models.StatusMetadataReady
	if err := p.DB.Save(&course).Error; err != nil {
		p.failCourse(&course, "Failed to save metadata: "+err.Error(), start)
		return err
	}

	duration := time.Since(start).Seconds()
	p.logGeneration(course.ID.String(), models.ActionMetadataGeneration,
		"Metadata generated successfully",
		map[string]interface{}{"title": course.Title, "total_modules": course.TotalModules}, &duration)
	log.Printf("Metadata generated for course %s in %.2fs", course.ID, duration)

	// Chain to module 1 so the course becomes usable as soon as possible.
	nextTask := tasks.ModuleOneTaskPayload{CourseID: course.ID.String()}
	if err := p.Enqueue(ctx, tasks.QueueModuleOne, nextTask); err != nil {
		p.failCourse(&course, "Failed to queue module 1 generation: "+err.Error(), start)
		return err
	}
	return nil
}

// HandleModuleOneGeneration processes tasks from QueueModuleOne.
//
// It creates placeholder rows for every module so navigation never misses,
// fills module 1 with real content, and chains to the remaining modules.
func (p *Processor) HandleModuleOneGeneration(ctx context.Context, payload string) error {
	var task tasks.ModuleOneTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	start := time.Now()
	log.Printf("Processing module 1 for course %s", task.CourseID)

	var course models.Course
	if err := p.DB.First(&course, "id = ?", task.CourseID).Error; err != nil {
		return err
	}

	p.setStatus(&course, models.StatusGeneratingModule1)
	p.logGeneration(course.ID.String(), models.ActionModuleGeneration, "Starting module 1 generation", nil, nil)

	if err := p.ensurePlaceholderModules(&course); err != nil {
		p.failCourse(&course, "Failed to create module placeholders: "+err.Error(), start)
		return err
	}

	var module models.Module
	if err := p.DB.First(&module, "course_id = ? AND module_order = ?", course.ID, 1).Error; err != nil {
		p.failCourse(&course, "Module 1 row missing: "+err.Error(), start)
		return err
	}

	// Module 1 is the first content in the course, so the exclusion set
	// starts empty.
	usedVideos := map[string]bool{}
	content, err := p.generateModuleContent(ctx, &course, 1)
	if err == nil {
		err = processing.ValidateModuleContent(content)
	}
	if err != nil {
		p.failCourse(&course, "Module 1 generation failed: "+err.Error(), start)
		return err
	}

	if err := p.persistModuleContent(ctx, &course, &module, content, usedVideos); err != nil {
		p.failCourse(&course, "Failed to save module 1: "+err.Error(), start)
		return err
	}

	p.setStatus(&course, models.StatusReady)

	duration := time.Since(start).Seconds()
	p.logGeneration(course.ID.String(), models.ActionModuleGeneration,
		"Module 1 content generated successfully",
		map[string]interface{}{"module_id": module.ModuleID, "chunks_count": len(content.Chunks)}, &duration)
	log.Printf("Module 1 generated for course %s in %.2fs", course.ID, duration)

	if course.TotalModules > 1 {
		nextTask := tasks.RemainingModulesTaskPayload{CourseID: course.ID.String()}
		if err := p.Enqueue(ctx, tasks.QueueRemainingModules, nextTask); err != nil {
			// The course is already usable; log and surface the enqueue
			// failure without failing it.
			log.Printf("Error queueing remaining modules for course %s: %v", course.ID, err)
			p.logGeneration(course.ID.String(), models.ActionError,
				"Failed to queue remaining modules: "+err.Error(), nil, nil)
			return err
		}
		log.Printf("Queued course %s for remaining module generation", course.ID)
	}
	return nil
}

// HandleRemainingModules processes tasks from QueueRemainingModules.
//
// Modules 2..N are generated in order; one module failing never starves the
// rest. The course always ends COMPLETE, and a stage-level error leaves the
// last good status in place rather than flipping to FAILED.
func (p *Processor) HandleRemainingModules(ctx context.Context, payload string) error {
	var task tasks.RemainingModulesTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	start := time.Now()
	log.Printf("Processing remaining modules for course %s", task.CourseID)

	var course models.Course
	if err := p.DB.First(&course, "id = ?", task.CourseID).Error; err != nil {
		return err
	}

	p.setStatus(&course, models.StatusGeneratingRemaining)
	p.logGeneration(course.ID.String(), models.ActionModuleGeneration, "Starting remaining module generation", nil, nil)

	// Recompute the course-wide exclusion set from persisted state so no
	// video repeats anywhere in the course.
	usedVideos := p.collectUsedVideoIDs(&course)

	modulesGenerated := 0
	for moduleNumber := 2; moduleNumber <= course.TotalModules; moduleNumber++ {
		var existing models.Module
		hasExisting := p.DB.First(&existing, "course_id = ? AND module_order = ?", course.ID, moduleNumber).Error == nil

		if hasExisting && p.chunkCount(existing.ID) > 0 {
			log.Printf("Module %d of course %s already has content, skipping", moduleNumber, course.ID)
			continue
		}

		if err := p.generateAndPersistModule(ctx, &course, moduleNumber, usedVideos); err != nil {
			log.Printf("Error generating module %d for course %s: %v", moduleNumber, course.ID, err)
			p.logGeneration(course.ID.String(), models.ActionError,
				"Module generation failed: "+err.Error(),
				map[string]interface{}{"module_number": moduleNumber}, nil)
			continue
		}
		modulesGenerated++
		log.Printf("Module %d generated for course %s", moduleNumber, course.ID)
	}

	// Final project is best-effort: the course completes without one.
	p.generateFinalProject(ctx, &course)

	now := time.Now()
	course.Status = models.StatusComplete
	course.CompletedAt = &now
	if err := p.DB.Save(&course).Error; err != nil {
		log.Printf("Error completing course %s: %v", course.ID, err)
		p.logGeneration(course.ID.String(), models.ActionError, "Failed to mark course complete: "+err.Error(), nil, nil)
		return err
	}

	duration := time.Since(start).Seconds()
	p.logGeneration(course.ID.String(), models.ActionCompletion,
		"Course completed",
		map[string]interface{}{"modules_generated": modulesGenerated, "total_modules": course.TotalModules}, &duration)
	log.Printf("Remaining modules generated for course %s in %.2fs", course.ID, duration)
	return nil
}

// HandleRegenerateModules processes tasks from QueueRegenerateModules.
//
// A module is missing when its row does not exist or owns no chunks. Each
// missing module is purged and rebuilt, so repeated or concurrent invocations
// never duplicate content.
func (p *Processor) HandleRegenerateModules(ctx context.Context, payload string) error {
	var task tasks.RegenerateTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	start := time.Now()
	log.Printf("Processing module regeneration for course %s", task.CourseID)

	var course models.Course
	if err := p.DB.First(&course, "id = ?", task.CourseID).Error; err != nil {
		return err
	}

	var missing []int
	for moduleNumber := 1; moduleNumber <= course.TotalModules; moduleNumber++ {
		var existing models.Module
		if p.DB.First(&existing, "course_id = ? AND module_order = ?", course.ID, moduleNumber).Error != nil {
			missing = append(missing, moduleNumber)
			continue
		}
		if p.chunkCount(existing.ID) == 0 {
			missing = append(missing, moduleNumber)
		}
	}

	if len(missing) == 0 {
		log.Printf("Course %s has no missing modules, nothing to regenerate", course.ID)
		return nil
	}

	log.Printf("Regenerating modules %v for course %s", missing, course.ID)
	usedVideos := p.collectUsedVideoIDs(&course)

	regenerated := 0
	for _, moduleNumber := range missing {
		// Purge partial content first so re-entry never leaves orphans.
		if err := p.purgeModuleContent(&course, moduleNumber); err != nil {
			log.Printf("Error purging module %d of course %s: %v", moduleNumber, course.ID, err)
			continue
		}
		if err := p.generateAndPersistModule(ctx, &course, moduleNumber, usedVideos); err != nil {
			log.Printf("Error regenerating module %d for course %s: %v", moduleNumber, course.ID, err)
			p.logGeneration(course.ID.String(), models.ActionError,
				"Module regeneration failed: "+err.Error(),
				map[string]interface{}{"module_number": moduleNumber}, nil)
			continue
		}
		regenerated++
	}

	if regenerated > 0 &&
		(course.Status == models.StatusGeneratingRemaining || course.Status == models.StatusFailed) {
		now := time.Now()
		course.Status = models.StatusComplete
		course.CompletedAt = &now
		if err := p.DB.Save(&course).Error; err != nil {
			return err
		}
	}

	duration := time.Since(start).Seconds()
	p.logGeneration(course.ID.String(), models.ActionModuleGeneration,
		"Module regeneration finished",
		map[string]interface{}{"missing": len(missing), "regenerated": regenerated}, &duration)
	log.Printf("Regenerated %d/%d modules for course %s in %.2fs", regenerated, len(missing), course.ID, duration)
	return nil
}
