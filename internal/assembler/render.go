package assembler

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/enums"
)

const (
	fontFamily    = "Times"
	bodySize      = 11.0
	lineHeight    = 5.5
	headingSize   = 13.0
	titleSize     = 16.0
	pageMargin    = 20.0
	bottomReserve = 25.0
	displayDate   = "January 2, 2006"
)

// render lays out the instrument and returns the PDF bytes and the final
// page count from the rendered layout.
func render(n *validation.NormalizedPOA, generatedAt time.Time) ([]byte, int, error) {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetCreationDate(generatedAt.UTC())
	pdf.SetModificationDate(generatedAt.UTC())
	pdf.SetTitle(title(n), true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomReserve)
	pdf.AddPage()

	renderTitle(pdf, n)
	renderPrincipal(pdf, n)
	renderAgents(pdf, n)

	if n.Family == enums.POAFamilyHealthcare {
		renderDirectives(pdf, n)
	} else {
		renderPowers(pdf, n)
	}

	renderTypeClauses(pdf, n)
	renderEffectiveness(pdf, n)
	renderPrincipalSignature(pdf, n, generatedAt)
	renderWitnesses(pdf, n)
	renderNotary(pdf, n)

	if pdf.Err() {
		return nil, 0, pdf.Error()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), pdf.PageCount(), nil
}

func title(n *validation.NormalizedPOA) string {
	if n.Family == enums.POAFamilyHealthcare {
		return "HEALTHCARE POWER OF ATTORNEY AND ADVANCE DIRECTIVE"
	}
	switch n.Type {
	case enums.POATypeSpringing:
		return "SPRINGING DURABLE POWER OF ATTORNEY"
	case enums.POATypeLimited:
		return "LIMITED POWER OF ATTORNEY"
	default:
		return "DURABLE POWER OF ATTORNEY"
	}
}

func renderTitle(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	pdf.SetFont(fontFamily, "B", titleSize)
	pdf.MultiCell(0, 8, title(n), "", "C", false)
	pdf.SetFont(fontFamily, "", bodySize)
	pdf.CellFormat(0, 6, "State of "+n.State.FullName(), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont(fontFamily, "B", headingSize)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", bodySize)
}

func paragraph(pdf *fpdf.Fpdf, text string) {
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
	pdf.Ln(2)
}

// ensureRoom forces a page break when fewer than h millimeters remain, so a
// block rendered next is never split across pages.
func ensureRoom(pdf *fpdf.Fpdf, h float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-bottomReserve {
		pdf.AddPage()
	}
}

func renderPrincipal(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	heading(pdf, "1. Principal")
	paragraph(pdf, fmt.Sprintf(
		"I, %s, born %s, residing at %s, designate the agent(s) named below to act on my behalf as provided in this instrument.",
		n.Principal.FullName,
		n.Principal.DateOfBirth.Format(displayDate),
		n.Principal.Address.OneLine(),
	))
}

func roleLabel(role enums.AgentRole, order int) string {
	switch role {
	case enums.AgentRoleSuccessor:
		return fmt.Sprintf("Successor Agent %d", order)
	case enums.AgentRoleCoAgent:
		return "Co-Agent"
	default:
		return "Primary Agent"
	}
}

func renderAgents(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	heading(pdf, "2. Appointment of Agents")
	for _, agent := range n.AgentsInSigningOrder() {
		paragraph(pdf, fmt.Sprintf("%s: %s, %s. Contact: %s.",
			roleLabel(agent.Role, agent.Order),
			agent.FullName,
			agent.Address.OneLine(),
			agent.Email,
		))
	}
	if hasRole(n, enums.AgentRoleSuccessor) {
		paragraph(pdf, "Each successor agent is authorized to act only if every previously listed agent is unable or unwilling to serve, in the order listed above.")
	}
	if hasRole(n, enums.AgentRoleCoAgent) {
		paragraph(pdf, "Co-agents may each act independently unless otherwise stated in this instrument.")
	}
}

func hasRole(n *validation.NormalizedPOA, role enums.AgentRole) bool {
	for _, a := range n.Agents {
		if a.Role == role {
			return true
		}
	}
	return false
}

func renderPowers(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	heading(pdf, "3. Granted Powers")
	if n.Powers.GrantAll {
		paragraph(pdf, "I grant my agent authority over all subjects enumerated in the Uniform Power of Attorney Act, including each power category and every specific authority within each category, to the fullest extent permitted by law.")
		return
	}
	paragraph(pdf, "I grant my agent authority over the following subjects only:")
	for _, grant := range n.Powers.Selections {
		name := grant.CategoryName
		if name == "" {
			name = grant.CategoryID.String()
		}
		if grant.AllSubPowers || len(grant.SubPowers) == 0 {
			paragraph(pdf, fmt.Sprintf("- %s, including every specific authority within this category.", name))
			continue
		}
		subNames := make([]string, 0, len(grant.SubPowers))
		for _, sub := range grant.SubPowers {
			subNames = append(subNames, sub.Name)
		}
		paragraph(pdf, fmt.Sprintf("- %s, limited to: %s.", name, strings.Join(subNames, "; ")))
	}
}

func renderDirectives(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	heading(pdf, "3. Healthcare Directives")
	paragraph(pdf, "My agent's authority over my healthcare is granted or withheld per decision area as follows:")
	for _, area := range enums.AllDirectiveAreas() {
		choice, ok := n.Directives.Choices[area]
		if !ok {
			continue
		}
		verdict := "WITHHELD"
		if choice.Granted {
			verdict = "GRANTED"
		}
		line := fmt.Sprintf("%s: %s.", area.Title(), verdict)
		if choice.Instructions != "" {
			line += " Instructions: " + choice.Instructions
		}
		paragraph(pdf, line)
	}
}

func renderTypeClauses(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	heading(pdf, "4. Durability and Effect")
	switch n.Type {
	case enums.POATypeDurable:
		paragraph(pdf, "This power of attorney is durable. It is not terminated by my subsequent incapacity and remains effective until my death or revocation.")
	case enums.POATypeSpringing:
		paragraph(pdf, fmt.Sprintf("This power of attorney becomes effective only upon the occurrence of the following condition: %s.", n.SpringingCondition))
		plural := "physician"
		if n.PhysiciansRequired > 1 {
			plural = "physicians"
		}
		paragraph(pdf, fmt.Sprintf("The condition shall be established by the written certification of %d licensed %s that the condition has occurred.", n.PhysiciansRequired, plural))
	case enums.POATypeLimited:
		paragraph(pdf, fmt.Sprintf("This power of attorney is limited to the following purpose: %s.", n.SpecificPurpose))
		paragraph(pdf, fmt.Sprintf("The authority granted terminates on %s, upon completion of the stated purpose, or upon revocation, whichever occurs first.", n.ExpirationDate.Format(displayDate)))
	case enums.POATypeHealthcare:
		paragraph(pdf, "This healthcare power of attorney is durable. My agent may act for me only when I am unable to make or communicate my own healthcare decisions, as determined by my attending physician.")
	}
}

func renderEffectiveness(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	if n.Type == enums.POATypeSpringing {
		return
	}
	if n.EffectiveDate != nil {
		paragraph(pdf, fmt.Sprintf("This instrument takes effect on %s.", n.EffectiveDate.Format(displayDate)))
	} else {
		paragraph(pdf, "This instrument takes effect immediately upon execution.")
	}
	if n.Type != enums.POATypeLimited && n.ExpirationDate != nil {
		paragraph(pdf, fmt.Sprintf("This instrument expires on %s unless revoked earlier.", n.ExpirationDate.Format(displayDate)))
	}
}

// signatureBlockHeight is the room a signature block needs so it is never
// split across a page boundary.
const signatureBlockHeight = 40.0

func signatureLines(pdf *fpdf.Fpdf, role, name, detail string) {
	ensureRoom(pdf, signatureBlockHeight)
	pdf.Ln(6)
	pdf.CellFormat(0, lineHeight, "_________________________________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, lineHeight, fmt.Sprintf("%s: %s", role, name), "", 1, "L", false, 0, "")
	if detail != "" {
		pdf.CellFormat(0, lineHeight, detail, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, lineHeight, "Date: ____________________", "", 1, "L", false, 0, "")
}

func renderPrincipalSignature(pdf *fpdf.Fpdf, n *validation.NormalizedPOA, generatedAt time.Time) {
	heading(pdf, "5. Execution")
	paragraph(pdf, fmt.Sprintf("Signed on or after %s.", generatedAt.UTC().Format(displayDate)))
	signatureLines(pdf, "Principal", n.Principal.FullName, "")
}

func renderWitnesses(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	if len(n.Witnesses) == 0 {
		return
	}
	ensureRoom(pdf, signatureBlockHeight)
	heading(pdf, "6. Witness Attestation")
	paragraph(pdf, "Each witness declares that the principal signed this instrument in their presence, appeared to be of sound mind, and acted free of duress.")
	for _, w := range n.Witnesses {
		signatureLines(pdf, "Witness", w.FullName, w.Address.OneLine())
	}
}

func renderNotary(pdf *fpdf.Fpdf, n *validation.NormalizedPOA) {
	if n.Notary == nil {
		return
	}
	ensureRoom(pdf, signatureBlockHeight+20)
	heading(pdf, "7. Notary Acknowledgment")
	paragraph(pdf, fmt.Sprintf(
		"State of %s. On the date below, before me personally appeared the principal, known to me or proven on satisfactory evidence to be the person whose name is subscribed to this instrument, and acknowledged executing it voluntarily.",
		n.State.FullName(),
	))
	detail := ""
	if n.Notary.CommissionNumber != "" {
		detail = "Commission No. " + n.Notary.CommissionNumber
		if n.Notary.CommissionExpiry != nil {
			detail += ", expires " + n.Notary.CommissionExpiry.Format(displayDate)
		}
	}
	signatureLines(pdf, "Notary Public", n.Notary.FullName, detail)
}
