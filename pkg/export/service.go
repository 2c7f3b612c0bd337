package export

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/promorail/promorail/pkg/domain"
	"github.com/promorail/promorail/pkg/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// Config holds export configuration
type Config struct {
	LocalPath          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
}

// Result describes a generated report
type Result struct {
	Filename     string  `json:"filename"`
	FilePath     string  `json:"file_path"`
	RowCount     int     `json:"row_count"`
	TotalSales   float64 `json:"total_sales"`
	TotalPayable float64 `json:"total_payable"`
	S3Key        string  `json:"s3_key,omitempty"`
	UploadedToS3 bool    `json:"uploaded_to_s3"`
}

// Service builds commission reports as XLSX files and optionally ships them
// to S3
type Service struct {
	db       *gorm.DB
	s3Client *s3.Client
	config   Config
}

// NewService creates a new export service. The S3 client is only built when
// a bucket is configured.
func NewService(db *gorm.DB, cfg Config) (*Service, error) {
	if err := os.MkdirAll(cfg.LocalPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	svc := &Service{db: db, config: cfg}

	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AWSAccessKeyID,
				cfg.AWSSecretAccessKey,
				"",
			)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		svc.s3Client = s3.NewFromConfig(awsCfg)
	}

	return svc, nil
}

// commissionRow is one line of the report, joined across the conversion's
// campaign and affiliate
type commissionRow struct {
	models.ConversionEvent
	CampaignName   string
	AffiliateEmail string
}

// ExportCommissions writes the tenant's conversion events in [from, to] to
// an XLSX report and uploads it to S3 when configured.
func (s *Service) ExportCommissions(ctx context.Context, tenantID uint, req models.ExportCommissionsRequest) (*Result, error) {
	if req.To.Before(req.From) {
		return nil, domain.NewValidationError("export range end must not precede its start")
	}

	var rows []commissionRow
	err := s.db.WithContext(ctx).
		Model(&models.ConversionEvent{}).
		Select("conversion_events.*, campaigns.name AS campaign_name, users.email AS affiliate_email").
		Joins("JOIN campaigns ON campaigns.id = conversion_events.campaign_id").
		Joins("JOIN affiliates ON affiliates.id = conversion_events.affiliate_id").
		Joins("JOIN users ON users.id = affiliates.user_id").
		Where("conversion_events.tenant_id = ? AND conversion_events.occurred_at BETWEEN ? AND ?", tenantID, req.From, req.To).
		Order("conversion_events.occurred_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load conversion events: %w", err)
	}

	filename := fmt.Sprintf("commissions-%d-%s.xlsx", tenantID, time.Now().Format("20060102-150405"))
	path := filepath.Join(s.config.LocalPath, filename)

	result := &Result{Filename: filename, FilePath: path, RowCount: len(rows)}

	if err := s.generateWorkbook(path, rows, result); err != nil {
		return nil, err
	}

	if s.s3Client != nil {
		key := fmt.Sprintf("exports/%d/%s", tenantID, filename)
		if err := s.uploadToS3(ctx, path, key); err != nil {
			return result, fmt.Errorf("report generated locally but S3 upload failed: %w", err)
		}
		result.S3Key = key
		result.UploadedToS3 = true
		log.Printf("✅ Commission report uploaded to S3: s3://%s/%s", s.config.S3Bucket, key)
	}

	return result, nil
}

func (s *Service) generateWorkbook(path string, rows []commissionRow, result *Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Commissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	headers := []string{
		"ID", "Occurred At", "Campaign", "Affiliate", "Sale Amount",
		"Commission %", "Commission", "Status",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	printer := message.NewPrinter(language.English)

	for rowIdx, row := range rows {
		r := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", r), row.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", r), row.OccurredAt.Format(time.RFC3339))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", r), row.CampaignName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", r), row.AffiliateEmail)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", r), formatMoney(printer, row.Currency, row.Amount))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", r), row.CommissionPercent)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", r), formatMoney(printer, row.Currency, row.CommissionAmount))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", r), row.Status)

		result.TotalSales += row.Amount
		result.TotalPayable += row.CommissionAmount
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// formatMoney renders an amount with its currency symbol, falling back to a
// bare number when the code is unknown.
func formatMoney(p *message.Printer, code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return p.Sprintf("%.2f", amount)
	}
	return p.Sprintf("%v", currency.NarrowSymbol(unit.Amount(amount)))
}

func (s *Service) uploadToS3(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer file.Close()

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}
