package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var directoryTracer = otel.Tracer("service/directory")

// DirectoryService manages the collaborator directory: contracting
// companies, collaborators (PJ, CLT, partners) and back-office admins.
// Like the payables service it keeps the collections in memory behind a
// mutex and commits them whole after every mutation.
type DirectoryService struct {
	store   port.DirectoryStore
	lookup  port.AddressLookup
	cep     port.Cache[*domain.Address]
	clock   port.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	mu        sync.Mutex
	companies []domain.Company
	users     []domain.User
	admins    []domain.Admin
}

// NewDirectoryService loads the persisted directory collections.
func NewDirectoryService(store port.DirectoryStore, lookup port.AddressLookup, cep port.Cache[*domain.Address], clk port.Clock, metrics *observability.Metrics, logger *zap.Logger) (*DirectoryService, error) {
	companies, err := store.LoadCompanies()
	if err != nil {
		return nil, err
	}
	users, err := store.LoadUsers()
	if err != nil {
		return nil, err
	}
	admins, err := store.LoadAdmins()
	if err != nil {
		return nil, err
	}
	return &DirectoryService{
		store:     store,
		lookup:    lookup,
		cep:       cep,
		clock:     clk,
		metrics:   metrics,
		logger:    logger,
		companies: companies,
		users:     users,
		admins:    admins,
	}, nil
}

// ============================================================
// Attachment uploads
// ============================================================

// AttachmentUpload is a raw uploaded file to be stored inline.
type AttachmentUpload struct {
	Name string
	Type string
	Data []byte
}

// encodeAttachments converts raw uploads into inline base64 attachments,
// encoding concurrently.
func encodeAttachments(ctx context.Context, uploads []AttachmentUpload) ([]domain.Attachment, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	out := make([]domain.Attachment, len(uploads))
	g, _ := errgroup.WithContext(ctx)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			if strings.TrimSpace(up.Name) == "" {
				return &domain.ErrValidation{Field: "attachments", Message: "arquivo sem nome"}
			}
			out[i] = domain.Attachment{
				Name: up.Name,
				Type: up.Type,
				Data: base64.StdEncoding.EncodeToString(up.Data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================
// Companies
// ============================================================

// CompanyInput carries the editable fields of a company plus any new
// uploads. Existing attachments are preserved by name on update.
type CompanyInput struct {
	Name         string
	CNPJ         string
	CEP          string
	Address      string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	Phone        string
	Attachments  []AttachmentUpload
}

// ListCompanies returns a copy of the company collection.
func (s *DirectoryService) ListCompanies(ctx context.Context) []domain.Company {
	_, span := directoryTracer.Start(ctx, "DirectoryService.ListCompanies")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Company, len(s.companies))
	copy(out, s.companies)
	return out
}

// CreateCompany registers a new contracting company with a fresh access key.
func (s *DirectoryService) CreateCompany(ctx context.Context, in CompanyInput) (*domain.Company, error) {
	ctx, span := directoryTracer.Start(ctx, "DirectoryService.CreateCompany")
	defer span.End()

	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "razão social é obrigatória"}
	}
	attachments, err := encodeAttachments(ctx, in.Attachments)
	if err != nil {
		return nil, err
	}

	c := domain.Company{
		ID:          uuid.New().String(),
		Key:         uuid.New().String(),
		Attachments: attachments,
		BankDetails: []domain.BankDetail{},
	}
	applyCompanyInput(&c, in)

	s.mu.Lock()
	s.companies = append(s.companies, c)
	s.commitCompaniesLocked()
	s.mu.Unlock()

	s.logger.Info("company created", zap.String("id", c.ID), zap.String("name", c.Name))
	return &c, nil
}

// UpdateCompany edits an existing company, appending any new uploads.
func (s *DirectoryService) UpdateCompany(ctx context.Context, id string, in CompanyInput) (*domain.Company, error) {
	ctx, span := directoryTracer.Start(ctx, "DirectoryService.UpdateCompany")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", id))

	if strings.TrimSpace(in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "razão social é obrigatória"}
	}
	attachments, err := encodeAttachments(ctx, in.Attachments)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: id}
	}
	c := s.companies[idx]
	applyCompanyInput(&c, in)
	c.Attachments = append(c.Attachments, attachments...)
	s.companies[idx] = c
	s.commitCompaniesLocked()

	out := c
	return &out, nil
}

func applyCompanyInput(c *domain.Company, in CompanyInput) {
	c.Name = in.Name
	c.CNPJ = in.CNPJ
	c.CEP = in.CEP
	c.Address = in.Address
	c.Number = in.Number
	c.Complement = in.Complement
	c.Neighborhood = in.Neighborhood
	c.City = in.City
	c.State = in.State
	c.Phone = in.Phone
}

// DeleteCompanies removes companies and unlinks them from every
// collaborator, recording the unlink in the collaborator's history.
func (s *DirectoryService) DeleteCompanies(ctx context.Context, ids []string) (int, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.DeleteCompanies")
	defer span.End()

	if len(ids) == 0 {
		return 0, &domain.ErrValidation{Field: "ids", Message: "nenhum identificador informado"}
	}
	drop := make(map[string]string, len(ids))

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.companies[:0:0]
	for _, c := range s.companies {
		found := false
		for _, id := range ids {
			if c.ID == id {
				drop[id] = c.Name
				found = true
				break
			}
		}
		if !found {
			kept = append(kept, c)
		}
	}
	removed := len(s.companies) - len(kept)
	if removed == 0 {
		return 0, &domain.ErrNotFound{Resource: "company", ID: ids[0]}
	}
	s.companies = kept

	for i := range s.users {
		u := s.users[i]
		var remaining []string
		var unlinked []string
		for _, cid := range u.CompanyIDs {
			if name, gone := drop[cid]; gone {
				unlinked = append(unlinked, name)
			} else {
				remaining = append(remaining, cid)
			}
		}
		if len(unlinked) == 0 {
			continue
		}
		u.CompanyIDs = remaining
		u = u.WithHistory("Vínculo Removido",
			fmt.Sprintf("Empresa(s) %s excluída(s) e desvinculada(s) do colaborador.", strings.Join(unlinked, ", ")), now)
		s.users[i] = u
	}

	s.commitCompaniesLocked()
	s.commitUsersLocked()
	s.logger.Info("companies deleted", zap.Int("removed", removed))
	return removed, nil
}

// AddCompanyBankDetail adds or edits a bank account on a company,
// applying the single-active-account rule.
func (s *DirectoryService) AddCompanyBankDetail(ctx context.Context, companyID string, entry domain.BankDetail) (*domain.Company, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.AddCompanyBankDetail")
	defer span.End()

	if err := validateBankDetail(entry); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndexLocked(companyID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	c := s.companies[idx]
	c.BankDetails = domain.AddOrUpdateBankDetail(c.BankDetails, entry, now)
	s.companies[idx] = c
	s.commitCompaniesLocked()

	out := c
	return &out, nil
}

// RemoveCompanyBankDetail deletes one bank account from a company,
// promoting the most recent remaining one to active.
func (s *DirectoryService) RemoveCompanyBankDetail(ctx context.Context, companyID, detailID string) (*domain.Company, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.RemoveCompanyBankDetail")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.companyIndexLocked(companyID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "company", ID: companyID}
	}
	c := s.companies[idx]
	c.BankDetails = domain.RemoveBankDetail(c.BankDetails, detailID)
	s.companies[idx] = c
	s.commitCompaniesLocked()

	out := c
	return &out, nil
}

func validateBankDetail(d domain.BankDetail) error {
	if strings.TrimSpace(d.BankName) == "" {
		return &domain.ErrValidation{Field: "bankName", Message: "banco é obrigatório"}
	}
	if strings.TrimSpace(d.Agency) == "" {
		return &domain.ErrValidation{Field: "agency", Message: "agência é obrigatória"}
	}
	if strings.TrimSpace(d.Account) == "" {
		return &domain.ErrValidation{Field: "account", Message: "conta é obrigatória"}
	}
	return nil
}

// ============================================================
// Collaborators
// ============================================================

// UserInput carries the editable fields of a collaborator.
type UserInput struct {
	Type       domain.UserType
	StartDate  string
	EndDate    string
	CompanyIDs []string

	FullName  string
	CPF       string
	BirthDate string
	Email     string
	Phones    []domain.Phone
	Uploads   []AttachmentUpload

	CompanyName    string
	CNPJ           string
	CompanyAddress *domain.Address
	HomeAddress    *domain.Address

	PIS         string
	MotherName  string
	FatherName  string
	JobFunction string
}

// ListUsers returns a copy of the collaborators, optionally filtered by
// contract type.
func (s *DirectoryService) ListUsers(ctx context.Context, userType domain.UserType) []domain.User {
	_, span := directoryTracer.Start(ctx, "DirectoryService.ListUsers")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if userType != "" && u.Type != userType {
			continue
		}
		out = append(out, u)
	}
	return out
}

// GetUser returns one collaborator by id.
func (s *DirectoryService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.GetUser")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	u := s.users[idx]
	return &u, nil
}

// CreateUser registers a collaborator with a fresh portal key.
func (s *DirectoryService) CreateUser(ctx context.Context, in UserInput) (*domain.User, error) {
	ctx, span := directoryTracer.Start(ctx, "DirectoryService.CreateUser")
	defer span.End()

	if err := validateUserInput(in); err != nil {
		return nil, err
	}
	attachments, err := encodeAttachments(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := domain.User{
		ID:                  uuid.New().String(),
		PortalKey:           uuid.New().String(),
		PersonalAttachments: attachments,
		BankDetails:         []domain.BankDetail{},
	}
	applyUserInput(&u, in)
	u = u.WithHistory("Criação", "Cadastro do colaborador criado.", now)

	s.mu.Lock()
	s.users = append(s.users, u)
	s.commitUsersLocked()
	s.mu.Unlock()

	s.logger.Info("user created",
		zap.String("id", u.ID),
		zap.String("type", string(u.Type)))
	return &u, nil
}

// UpdateUser edits a collaborator, recording every changed field in the
// history. Setting an end date on an active collaborator deactivates all
// of their bank accounts.
func (s *DirectoryService) UpdateUser(ctx context.Context, id string, in UserInput) (*domain.User, error) {
	ctx, span := directoryTracer.Start(ctx, "DirectoryService.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id))

	if err := validateUserInput(in); err != nil {
		return nil, err
	}
	attachments, err := encodeAttachments(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	u := s.users[idx]
	changes := describeUserChanges(u, in)
	wasActive := u.EndDate == ""

	applyUserInput(&u, in)
	u.PersonalAttachments = append(u.PersonalAttachments, attachments...)
	if len(changes) > 0 {
		u = u.WithHistory("Edição", strings.Join(changes, " "), now)
	}

	if wasActive && u.EndDate != "" {
		deactivated := 0
		u.BankDetails, deactivated = domain.DeactivateAllBankDetails(u.BankDetails, now)
		if deactivated > 0 {
			u = u.WithHistory("Desligamento",
				fmt.Sprintf("Colaborador desligado em %s. %d conta(s) bancária(s) desativada(s).", u.EndDate, deactivated), now)
		}
	}

	s.users[idx] = u
	s.commitUsersLocked()

	out := u
	return &out, nil
}

// DeleteUsers removes collaborators by id.
func (s *DirectoryService) DeleteUsers(ctx context.Context, ids []string) (int, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.DeleteUsers")
	defer span.End()

	if len(ids) == 0 {
		return 0, &domain.ErrValidation{Field: "ids", Message: "nenhum identificador informado"}
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.users[:0:0]
	for _, u := range s.users {
		if _, gone := drop[u.ID]; !gone {
			kept = append(kept, u)
		}
	}
	removed := len(s.users) - len(kept)
	if removed == 0 {
		return 0, &domain.ErrNotFound{Resource: "user", ID: ids[0]}
	}
	s.users = kept
	s.commitUsersLocked()
	return removed, nil
}

// AddUserBankDetail adds or edits a bank account on a collaborator.
func (s *DirectoryService) AddUserBankDetail(ctx context.Context, userID string, entry domain.BankDetail) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.AddUserBankDetail")
	defer span.End()

	if err := validateBankDetail(entry); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(userID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u := s.users[idx]
	u.BankDetails = domain.AddOrUpdateBankDetail(u.BankDetails, entry, now)
	u = u.WithHistory("Dados Bancários",
		fmt.Sprintf("Conta no banco %q adicionada ou atualizada.", entry.BankName), now)
	s.users[idx] = u
	s.commitUsersLocked()

	out := u
	return &out, nil
}

// RemoveUserBankDetail deletes one bank account from a collaborator.
func (s *DirectoryService) RemoveUserBankDetail(ctx context.Context, userID, detailID string) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.RemoveUserBankDetail")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(userID)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: userID}
	}
	u := s.users[idx]
	before := len(u.BankDetails)
	u.BankDetails = domain.RemoveBankDetail(u.BankDetails, detailID)
	if len(u.BankDetails) == before {
		return nil, &domain.ErrNotFound{Resource: "bank detail", ID: detailID}
	}
	u = u.WithHistory("Dados Bancários", "Conta bancária removida.", now)
	s.users[idx] = u
	s.commitUsersLocked()

	out := u
	return &out, nil
}

// ImportUserFromCode registers a collaborator from a base64-encoded JSON
// payload produced by another installation. The imported record gets a
// fresh id and portal key and a clean history.
func (s *DirectoryService) ImportUserFromCode(ctx context.Context, code string) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.ImportUserFromCode")
	defer span.End()

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(code))
	if err != nil {
		return nil, &domain.ErrValidation{Field: "code", Message: "código inválido"}
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &domain.ErrValidation{Field: "code", Message: "código inválido"}
	}
	if strings.TrimSpace(u.FullName) == "" || strings.TrimSpace(u.CPF) == "" {
		return nil, &domain.ErrValidation{Field: "code", Message: "o código não contém um cadastro completo"}
	}
	switch u.Type {
	case domain.UserPJ, domain.UserCLT, domain.UserPartner:
	default:
		return nil, &domain.ErrValidation{Field: "type", Message: "tipo de colaborador inválido"}
	}

	now := s.clock.Now()
	u.ID = uuid.New().String()
	u.PortalKey = uuid.New().String()
	u.CompanyIDs = nil
	u.History = nil
	u = u.WithHistory("Criação", "Usuário importado via código.", now)

	s.mu.Lock()
	s.users = append(s.users, u)
	s.commitUsersLocked()
	s.mu.Unlock()

	return &u, nil
}

// ExportUserCode produces the base64 payload for ImportUserFromCode.
func (s *DirectoryService) ExportUserCode(ctx context.Context, id string) (string, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.ExportUserCode")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.userIndexLocked(id)
	if idx < 0 {
		return "", &domain.ErrNotFound{Resource: "user", ID: id}
	}
	raw, err := json.Marshal(s.users[idx])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// PortalUser resolves a collaborator by their portal key.
func (s *DirectoryService) PortalUser(ctx context.Context, portalKey string) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.PortalUser")
	defer span.End()

	if strings.TrimSpace(portalKey) == "" {
		return nil, &domain.ErrValidation{Field: "portalKey", Message: "chave de acesso é obrigatória"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.PortalKey == portalKey {
			out := u
			return &out, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: portalKey}
}

// UpdateUserFromPortal lets a collaborator edit their own contact data
// through the portal. Contract fields are not reachable from here.
func (s *DirectoryService) UpdateUserFromPortal(ctx context.Context, portalKey string, email string, phones []domain.Phone, homeAddress *domain.Address) (*domain.User, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.UpdateUserFromPortal")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, u := range s.users {
		if u.PortalKey != portalKey {
			continue
		}
		u.Email = email
		u.Phones = phones
		if homeAddress != nil {
			u.HomeAddress = homeAddress
		}
		u = u.WithHistory("Edição", "Dados atualizados pelo colaborador via portal.", now)
		s.users[i] = u
		s.commitUsersLocked()
		out := u
		return &out, nil
	}
	return nil, &domain.ErrNotFound{Resource: "user", ID: portalKey}
}

// PropagateJobFunctionRename rewrites the job function on every CLT
// collaborator that carries the old name.
func (s *DirectoryService) PropagateJobFunctionRename(ctx context.Context, oldName, newName string) (int, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.PropagateJobFunctionRename")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.users {
		if s.users[i].JobFunction != oldName {
			continue
		}
		u := s.users[i]
		u.JobFunction = newName
		u = u.WithHistory("Atualização em Massa",
			fmt.Sprintf("Função renomeada de %q para %q.", oldName, newName), now)
		s.users[i] = u
		changed++
	}
	if changed > 0 {
		s.commitUsersLocked()
	}
	return changed, nil
}

func validateUserInput(in UserInput) error {
	if strings.TrimSpace(in.FullName) == "" {
		return &domain.ErrValidation{Field: "fullName", Message: "nome completo é obrigatório"}
	}
	if strings.TrimSpace(in.CPF) == "" {
		return &domain.ErrValidation{Field: "cpf", Message: "CPF é obrigatório"}
	}
	switch in.Type {
	case domain.UserPJ, domain.UserCLT, domain.UserPartner:
	default:
		return &domain.ErrValidation{Field: "type", Message: "tipo de colaborador inválido"}
	}
	if strings.TrimSpace(in.StartDate) == "" {
		return &domain.ErrValidation{Field: "startDate", Message: "data de início é obrigatória"}
	}
	return nil
}

func applyUserInput(u *domain.User, in UserInput) {
	u.Type = in.Type
	u.StartDate = in.StartDate
	u.EndDate = in.EndDate
	u.CompanyIDs = in.CompanyIDs
	u.FullName = in.FullName
	u.CPF = in.CPF
	u.BirthDate = in.BirthDate
	u.Email = in.Email
	u.Phones = in.Phones
	u.CompanyName = in.CompanyName
	u.CNPJ = in.CNPJ
	u.CompanyAddress = in.CompanyAddress
	u.HomeAddress = in.HomeAddress
	u.PIS = in.PIS
	u.MotherName = in.MotherName
	u.FatherName = in.FatherName
	u.JobFunction = in.JobFunction
}

func describeUserChanges(before domain.User, after UserInput) []string {
	var changes []string
	str := func(label, a, b string) {
		if a != b {
			changes = append(changes, fmt.Sprintf("%s: de %q para %q.", label, a, b))
		}
	}
	str("Nome", before.FullName, after.FullName)
	str("E-mail", before.Email, after.Email)
	str("CPF", before.CPF, after.CPF)
	str("Início", before.StartDate, after.StartDate)
	str("Término", before.EndDate, after.EndDate)
	str("Empresa", before.CompanyName, after.CompanyName)
	str("CNPJ", before.CNPJ, after.CNPJ)
	str("Função", before.JobFunction, after.JobFunction)
	if string(before.Type) != string(after.Type) {
		changes = append(changes, fmt.Sprintf("Tipo: de %q para %q.", before.Type, after.Type))
	}
	return changes
}

// ============================================================
// Admins
// ============================================================

// ListAdmins returns a copy of the admin collection.
func (s *DirectoryService) ListAdmins(ctx context.Context) []domain.Admin {
	_, span := directoryTracer.Start(ctx, "DirectoryService.ListAdmins")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Admin, len(s.admins))
	copy(out, s.admins)
	return out
}

// SaveAdmin creates or updates an administrator. Empty id means create.
func (s *DirectoryService) SaveAdmin(ctx context.Context, id string, in domain.Admin) (*domain.Admin, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.SaveAdmin")
	defer span.End()

	if strings.TrimSpace(in.FullName) == "" {
		return nil, &domain.ErrValidation{Field: "fullName", Message: "nome completo é obrigatório"}
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "e-mail é obrigatório"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		in.ID = uuid.New().String()
		s.admins = append(s.admins, in)
		s.commitAdminsLocked()
		return &in, nil
	}
	for i := range s.admins {
		if s.admins[i].ID == id {
			in.ID = id
			s.admins[i] = in
			s.commitAdminsLocked()
			return &in, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "admin", ID: id}
}

// DeleteAdmins removes administrators by id.
func (s *DirectoryService) DeleteAdmins(ctx context.Context, ids []string) (int, error) {
	_, span := directoryTracer.Start(ctx, "DirectoryService.DeleteAdmins")
	defer span.End()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.admins[:0:0]
	for _, a := range s.admins {
		if _, gone := drop[a.ID]; !gone {
			kept = append(kept, a)
		}
	}
	removed := len(s.admins) - len(kept)
	if removed == 0 {
		return 0, &domain.ErrNotFound{Resource: "admin", ID: strings.Join(ids, ",")}
	}
	s.admins = kept
	s.commitAdminsLocked()
	return removed, nil
}

// ============================================================
// Address lookup
// ============================================================

// LookupCEP resolves a postal code, caching successful lookups.
func (s *DirectoryService) LookupCEP(ctx context.Context, cep string) (*domain.Address, error) {
	ctx, span := directoryTracer.Start(ctx, "DirectoryService.LookupCEP")
	defer span.End()

	if addr, ok := s.cep.Get(cep); ok {
		s.metrics.IncrCacheHit("cep")
		return addr, nil
	}
	s.metrics.IncrCacheMiss("cep")

	addr, err := s.lookup.Lookup(ctx, cep)
	if err != nil {
		return nil, err
	}
	s.cep.Set(cep, addr)
	return addr, nil
}

// ============================================================
// Locked helpers
// ============================================================

func (s *DirectoryService) companyIndexLocked(id string) int {
	for i := range s.companies {
		if s.companies[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DirectoryService) userIndexLocked(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DirectoryService) commitCompaniesLocked() {
	if err := s.store.CommitCompanies(s.companies); err != nil {
		s.logger.Error("failed to persist companies", zap.Error(err))
	}
}

func (s *DirectoryService) commitUsersLocked() {
	if err := s.store.CommitUsers(s.users); err != nil {
		s.logger.Error("failed to persist users", zap.Error(err))
	}
}

func (s *DirectoryService) commitAdminsLocked() {
	if err := s.store.CommitAdmins(s.admins); err != nil {
		s.logger.Error("failed to persist admins", zap.Error(err))
	}
}
