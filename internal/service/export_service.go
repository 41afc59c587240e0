package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/models"
	appErrors "github.com/campus-core/registrar-api/pkg/errors"
	"github.com/campus-core/registrar-api/pkg/export"
)

// ExportFormat selects the rendered document type.
type ExportFormat string

// Supported export formats.
const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

type exportTranscriptReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error)
}

type exportScheduleReader interface {
	ListStudentSections(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error)
}

// ExportDocument is a rendered export ready to stream to the client.
type ExportDocument struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders transcripts and weekly schedules as downloadable
// documents.
type ExportService struct {
	transcripts exportTranscriptReader
	schedules   exportScheduleReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(transcripts exportTranscriptReader, schedules exportScheduleReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		transcripts: transcripts,
		schedules:   schedules,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// ExportTranscript renders a student's transcript.
func (s *ExportService) ExportTranscript(ctx context.Context, studentID int64, format ExportFormat) (*ExportDocument, error) {
	entries, err := s.transcripts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript")
	}

	data := export.Dataset{Headers: []string{"Course", "Semester", "Grade"}}
	for _, entry := range entries {
		grade := ""
		if entry.Grade != nil {
			grade = *entry.Grade
		}
		data.Rows = append(data.Rows, map[string]string{
			"Course":   entry.CourseCode,
			"Semester": entry.Semester,
			"Grade":    grade,
		})
	}

	title := fmt.Sprintf("Transcript - Student %d", studentID)
	basename := fmt.Sprintf("transcript_%d", studentID)
	return s.render(data, format, title, basename)
}

// ExportSchedule renders a student's weekly schedule for a semester.
func (s *ExportService) ExportSchedule(ctx context.Context, studentID int64, semester string, format ExportFormat) (*ExportDocument, error) {
	sections, err := s.schedules.ListStudentSections(ctx, studentID, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	data := export.Dataset{Headers: []string{"Course", "Section", "Days", "Start", "End", "Room", "Semester"}}
	for _, section := range sections {
		data.Rows = append(data.Rows, map[string]string{
			"Course":   section.CourseCode,
			"Section":  strconv.FormatInt(section.ID, 10),
			"Days":     section.Days,
			"Start":    section.TimeStart,
			"End":      section.TimeEnd,
			"Room":     section.Room,
			"Semester": section.Semester,
		})
	}

	title := fmt.Sprintf("Schedule %s - Student %d", semester, studentID)
	basename := fmt.Sprintf("schedule_%d_%s", studentID, semester)
	return s.render(data, format, title, basename)
}

func (s *ExportService) render(data export.Dataset, format ExportFormat, title, basename string) (*ExportDocument, error) {
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportDocument{Content: content, ContentType: "text/csv", Filename: basename + ".csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportDocument{Content: content, ContentType: "application/pdf", Filename: basename + ".pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
