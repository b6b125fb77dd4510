package api

import (
	"time"

	"github.com/robby/learnhub/internal/domain"
	"github.com/tidwall/gjson"
)

// Decoders turn envelope fragments into domain values exactly once, at the
// service boundary. Missing fields take their zero value; missing lists decode
// to empty (never nil) slices.

// listOf returns the array found at data.<key> for the first key present,
// or data itself when it is an array, or an empty slice.
func listOf(data gjson.Result, keys ...string) []gjson.Result {
	for _, k := range keys {
		if v := data.Get(k); v.IsArray() {
			return v.Array()
		}
	}
	if data.IsArray() {
		return data.Array()
	}
	return []gjson.Result{}
}

// objectOf returns data.<key> for the first key holding an object, or data.
func objectOf(data gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := data.Get(k); v.IsObject() {
			return v
		}
	}
	return data
}

// firstString returns the first non-empty string among keys.
func firstString(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if s := r.Get(k).String(); s != "" {
			return s
		}
	}
	return ""
}

// idOf reads "_id" or "id".
func idOf(r gjson.Result) string {
	return firstString(r, "_id", "id")
}

// refID reads a reference that may be a bare ID or an embedded object.
func refID(r gjson.Result, key string) string {
	v := r.Get(key)
	if v.IsObject() {
		return idOf(v)
	}
	return v.String()
}

// timeOf parses an RFC 3339 timestamp, returning the zero time if absent or invalid.
func timeOf(r gjson.Result, keys ...string) time.Time {
	s := firstString(r, keys...)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	return time.Time{}
}

func decodeTrack(r gjson.Result) domain.Track {
	return domain.Track{
		ID:          idOf(r),
		Name:        firstString(r, "name", "title"),
		Slug:        r.Get("slug").String(),
		Description: r.Get("description").String(),
		IsActive:    !r.Get("isActive").Exists() || r.Get("isActive").Bool(),
	}
}

func decodeTracks(items []gjson.Result) []domain.Track {
	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		tracks = append(tracks, decodeTrack(item))
	}
	return tracks
}

func decodeCohort(r gjson.Result) domain.Cohort {
	return domain.Cohort{
		ID:                  idOf(r),
		Name:                r.Get("name").String(),
		Number:              int(firstInt(r, "cohortNumber", "number")),
		StartDate:           timeOf(r, "startDate"),
		EndDate:             timeOf(r, "endDate"),
		ApplicationDeadline: timeOf(r, "applicationDeadline"),
		IsActive:            r.Get("isActive").Bool(),
		Tracks:              decodeTracks(listOf(r, "tracks")),
	}
}

func firstInt(r gjson.Result, keys ...string) int64 {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v.Int()
		}
	}
	return 0
}

func decodeUser(r gjson.Result) domain.User {
	return domain.User{
		ID:        idOf(r),
		FirstName: r.Get("firstName").String(),
		LastName:  r.Get("lastName").String(),
		Email:     r.Get("email").String(),
		Role:      r.Get("role").String(),
		TrackID:   refID(r, "track"),
		CohortID:  refID(r, "cohort"),
	}
}

func decodeAttachments(r gjson.Result, key string) []domain.Attachment {
	items := listOf(r, key)
	out := make([]domain.Attachment, 0, len(items))
	for _, item := range items {
		out = append(out, decodeAttachment(item))
	}
	return out
}

func decodeAttachment(r gjson.Result) domain.Attachment {
	kind := domain.AttachmentKind(r.Get("kind").String())
	if kind == "" {
		// Links carry no size/type; uploaded files always do.
		if r.Get("size").Exists() || r.Get("type").Exists() || r.Get("mimeType").Exists() {
			kind = domain.AttachmentFile
		} else {
			kind = domain.AttachmentLink
		}
	}
	return domain.Attachment{
		Kind:        kind,
		URL:         firstString(r, "url", "fileUrl", "link"),
		Title:       firstString(r, "title", "name", "originalName"),
		MimeType:    firstString(r, "mimeType", "type"),
		Size:        r.Get("size").Int(),
		Description: r.Get("description").String(),
		IsRequired:  r.Get("isRequired").Bool(),
	}
}

func decodeStream(r gjson.Result) domain.Stream {
	return domain.Stream{
		ID:          idOf(r),
		Title:       r.Get("title").String(),
		Content:     firstString(r, "content", "body"),
		Type:        r.Get("type").String(),
		CohortID:    refID(r, "cohort"),
		TrackID:     refID(r, "track"),
		Author:      firstString(r, "author.firstName", "author"),
		CreatedAt:   timeOf(r, "createdAt"),
		Attachments: append(decodeAttachments(r, "files"), decodeAttachments(r, "links")...),
	}
}

func decodeTask(r gjson.Result) domain.Task {
	return domain.Task{
		ID:          idOf(r),
		Title:       r.Get("title").String(),
		Description: r.Get("description").String(),
		Type:        r.Get("type").String(),
		CohortID:    refID(r, "cohort"),
		TrackID:     refID(r, "track"),
		DueDate:     timeOf(r, "dueDate"),
		MaxScore:    int(r.Get("maxScore").Int()),
		Resources:   decodeAttachments(r, "resources"),
	}
}

func decodeSubmission(r gjson.Result) domain.Submission {
	return domain.Submission{
		ID:          idOf(r),
		TaskID:      refID(r, "task"),
		StudentName: firstString(r, "student.firstName", "studentName"),
		Link:        firstString(r, "link", "submissionLink", "url"),
		Score:       int(r.Get("score").Int()),
		Graded:      r.Get("score").Exists() || r.Get("status").String() == "graded",
		SubmittedAt: timeOf(r, "submittedAt", "createdAt"),
	}
}
