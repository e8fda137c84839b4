package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"vetvisit/internal/consultation"
)

// Service renders a finalized prescription as a PDF for share targets that
// take a document. Rendering is purely in-memory and never touches
// prescription state.
type Service struct {
	fontPaths []string
}

func NewService() *Service {
	return &Service{
		// DejaVuSans covers accented characters; common paths per distro.
		fontPaths: []string{
			"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		},
	}
}

func (s *Service) RenderPrescription(snap consultation.Snapshot, clinicName string) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("load PDF font: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Receta Veterinaria — %s", clinicName))
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("Fecha: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Paciente: %s", snap.PetName))
	pdf.Br(25)

	if len(snap.Draft.Vitals) > 0 {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return nil, err
		}
		pdf.Cell(nil, "Signos vitales:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return nil, err
		}
		for field, value := range snap.Draft.Vitals {
			pdf.Cell(nil, fmt.Sprintf("- %s: %s", field, value))
			pdf.Br(12)
		}
		pdf.Br(10)
	}

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Medicamentos:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return nil, err
	}
	for _, item := range snap.Draft.Items {
		line := fmt.Sprintf("- %s, %s, %s", item.Medication, item.Dosage, item.Frequency)
		if item.Duration != "" {
			line += fmt.Sprintf(" (%s)", item.Duration)
		}
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		if item.Instructions != "" {
			lines, _ := pdf.SplitText("  "+item.Instructions, 500)
			for _, l := range lines {
				pdf.Cell(nil, l)
				pdf.Br(12)
			}
		}
		pdf.Br(5)
	}

	pdf.SetY(260)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Firmado electrónicamente por el médico veterinario tratante.")
	pdf.Br(12)
	if snap.ShareURL != "" {
		pdf.Cell(nil, fmt.Sprintf("Receta verificable en: %s", snap.ShareURL))
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
