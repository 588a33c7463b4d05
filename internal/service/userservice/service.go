package userservice

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
)

// emailPattern: algo + '@' + algo + '.' + sufixo de 2+ letras.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// Service implementa domain.UserService: valida a entrada e delega ao repositório.
// Não guarda estado persistente próprio.
type Service struct {
	repo     domain.UserRepository
	hasher   domain.PasswordHasher
	validate *validator.Validate
	logger   logger.Logger
}

// NewService cria uma nova instância do Service, injetando Repositório e Hasher.
func NewService(repo domain.UserRepository, hasher domain.PasswordHasher, logger logger.Logger) *Service {
	v := validator.New()
	// Os nomes das regras são fixos; um erro aqui é bug de programação.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("useremail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}

	return &Service{
		repo:     repo,
		hasher:   hasher,
		validate: v,
		logger:   logger,
	}
}

// Register registra um novo usuário, gravando apenas o hash da senha.
// Ordem: campos obrigatórios, formato do email, unicidade do email.
func (s *Service) Register(ctx context.Context, email, name, password string, age *int) (domain.User, error) {
	s.logger.Debug("Iniciando registro de usuário no serviço.", map[string]interface{}{"email": email})

	if err := s.validateRequired(email, name, password); err != nil {
		s.logger.Warn("Falha na validação dos campos obrigatórios.", map[string]interface{}{"email": email, "error": err.Error()})
		return domain.User{}, err
	}
	if err := s.validateEmailFormat(email); err != nil {
		s.logger.Warn("Formato de email inválido.", map[string]interface{}{"email": email})
		return domain.User{}, err
	}
	if err := s.ensureEmailUnique(ctx, email, 0); err != nil {
		return domain.User{}, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// A constraint UNIQUE do banco continua sendo a autoridade final (ConflictError).
	user, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		Age:          age,
	})
	if err != nil {
		s.logger.Error("Falha ao criar usuário no repositório.", err)
		return domain.User{}, err
	}

	s.logger.Info("Usuário registrado com sucesso.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// Authenticate devolve o usuário apenas se o email existir e a senha conferir.
// Email inexistente e senha errada produzem o mesmo resultado (found=false).
func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.User, bool, error) {
	user, found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Falha ao buscar usuário para autenticação.", err)
		return domain.User{}, false, err
	}

	if !found || !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("Credenciais inválidas.", map[string]interface{}{"email": email})
		return domain.User{}, false, nil
	}

	s.logger.Info("Usuário autenticado.", map[string]interface{}{"user_id": user.ID})
	return user, true, nil
}

// FindByID busca um usuário pelo ID.
func (s *Service) FindByID(ctx context.Context, id int64) (domain.User, bool, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail busca um usuário pelo email.
func (s *Service) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return s.repo.FindByEmail(ctx, email)
}

// ListAll lista todos os usuários.
func (s *Service) ListAll(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListAll(ctx)
}

// Update atualiza os dados de um usuário sem alterar a senha.
// PasswordHash deve ser o hash atual; senhas novas passam apenas por ChangePassword.
func (s *Service) Update(ctx context.Context, user domain.User) (domain.User, error) {
	s.logger.Debug("Iniciando atualização de usuário no serviço.", map[string]interface{}{"user_id": user.ID, "email": user.Email})

	if !user.IsPersisted() {
		return domain.User{}, apperror.NewValidationError("O usuário ou seu ID não podem ser nulos.")
	}
	if err := s.validateRequired(user.Email, user.Name, user.PasswordHash); err != nil {
		s.logger.Warn("Falha na validação dos campos obrigatórios para atualização.", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
		return domain.User{}, err
	}
	if err := s.validateEmailFormat(user.Email); err != nil {
		s.logger.Warn("Formato de email inválido para atualização.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
		return domain.User{}, err
	}
	// O próprio ID é excluído da checagem para quem mantém o email atual.
	if err := s.ensureEmailUnique(ctx, user.Email, user.ID); err != nil {
		return domain.User{}, err
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		s.logger.Error("Falha ao atualizar usuário no repositório.", err)
		return domain.User{}, err // Erros do repositório já são NotFoundError, ConflictError ou StorageError
	}

	s.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": updated.ID})
	return updated, nil
}

// ChangePassword troca apenas o hash da senha; os demais campos ficam intactos.
func (s *Service) ChangePassword(ctx context.Context, id int64, newPassword string) (domain.User, error) {
	s.logger.Debug("Iniciando troca de senha no serviço.", map[string]interface{}{"user_id": id})

	if s.validate.Var(newPassword, "notblank") != nil {
		return domain.User{}, apperror.NewValidationError("A senha não pode estar vazia.")
	}

	user, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar usuário para troca de senha.", err)
		return domain.User{}, err
	}
	if !found {
		s.logger.Info("Usuário não encontrado para troca de senha.", map[string]interface{}{"user_id": id})
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário não encontrado com ID: %d", id))
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("Falha ao gerar hash da nova senha.", err)
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	user.PasswordHash = hashed

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		s.logger.Error("Falha ao gravar a nova senha.", err)
		return domain.User{}, err
	}

	s.logger.Info("Senha alterada com sucesso.", map[string]interface{}{"user_id": id})
	return updated, nil
}

// Delete remove um usuário; false quando o ID não existe.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao deletar usuário no repositório.", err)
		return false, err
	}
	return deleted, nil
}

// Close libera os recursos do repositório.
func (s *Service) Close() error {
	return s.repo.Close()
}

// --- Validações ---

// validateRequired garante que email, nome e senha não sejam vazios (após trim).
func (s *Service) validateRequired(email, name, password string) error {
	if s.validate.Var(email, "notblank") != nil {
		return apperror.NewValidationError("O email é obrigatório.")
	}
	if s.validate.Var(name, "notblank") != nil {
		return apperror.NewValidationError("O nome é obrigatório.")
	}
	if s.validate.Var(password, "notblank") != nil {
		return apperror.NewValidationError("A senha é obrigatória.")
	}
	return nil
}

func (s *Service) validateEmailFormat(email string) error {
	if s.validate.Var(email, "useremail") != nil {
		return apperror.NewValidationError("O formato do email não é válido.")
	}
	return nil
}

// ensureEmailUnique é apenas uma checagem antecipada para uma mensagem amigável.
// currentID == 0 indica um usuário novo.
func (s *Service) ensureEmailUnique(ctx context.Context, email string, currentID int64) error {
	existing, found, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Falha ao verificar unicidade do email.", err)
		return err
	}
	if found && (currentID == 0 || existing.ID != currentID) {
		s.logger.Warn("Email já registrado.", map[string]interface{}{"email": email})
		return apperror.NewConflictError(fmt.Sprintf("O email '%s' já está registrado.", email))
	}
	return nil
}

var _ domain.UserService = (*Service)(nil)
