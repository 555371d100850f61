package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/skillswap/skill_exchange/configs"
	"github.com/skillswap/skill_exchange/database"
	"github.com/skillswap/skill_exchange/models"
)

// GenerateCertificate renders a completion certificate for a finished
// learning path, prints it to PDF, uploads it, and stores the URL on the
// path. Best-effort: callers run it in a goroutine and a failure only logs.
func GenerateCertificate(pathID uuid.UUID) {
	var path models.LearningPath
	if err := database.DB.Preload("Learner").Preload("Instructor").
		First(&path, "id = ?", pathID).Error; err != nil {
		log.Printf("🔥 Certificate: failed to load learning path %s: %v", pathID, err)
		return
	}

	if path.Status != models.PathStatusCompleted {
		return
	}
	if path.CertificateURL != nil {
		return
	}

	htmlData, err := generateCertificateHTML(path)
	if err != nil {
		log.Printf("🔥 Failed to generate certificate HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate PDF: %v", err)
		return
	}

	uploadURL, err := uploadToCloudinary(pdfBytes, path.LearnerID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload certificate to Cloudinary: %v", err)
		return
	}

	if err := database.DB.Model(&path).Update("certificate_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to store certificate URL for path %s: %v", pathID, err)
		return
	}
	log.Printf("✅ Generated certificate for %s (%s).", path.Learner.Name, path.SkillName)
}

func generateCertificateHTML(path models.LearningPath) (string, error) {
	tmpl, err := template.ParseFiles("templates/certificate.html")
	if err != nil {
		return "", err
	}

	completed := time.Now()
	if path.CompletedAt != nil {
		completed = *path.CompletedAt
	}

	data := struct {
		LearnerName    string
		InstructorName string
		SkillName      string
		ModuleCount    int
		CompletionDate string
	}{
		LearnerName:    path.Learner.Name,
		InstructorName: path.Instructor.Name,
		SkillName:      path.SkillName,
		ModuleCount:    path.TotalModules,
		CompletionDate: completed.Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadToCloudinary(fileBytes []byte, learnerID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("certificates/%s_%s", learnerID, uuid.New().String()),
		Folder:       "skill_exchange_certificates",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
