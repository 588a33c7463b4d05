package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
)

const menuText = `++++++++++++++++++++++++++++++++++++++
          GESTÃO DE USUÁRIOS
++++++++++++++++++++++++++++++++++++++
|  1. Registrar usuário              |
|  2. Listar todos os usuários       |
|  3. Buscar por ID                  |
|  4. Buscar por email               |
|  5. Atualizar usuário              |
|  6. Alterar senha                  |
|  7. Excluir usuário                |
|  8. Autenticar (login)             |
|  9. Verificar token de sessão      |
|  0. Sair                           |
++++++++++++++++++++++++++++++++++++++`

// Menu é a interface de console: lê opções numeradas e delega ao UserService.
// sessions pode ser nil; nesse caso login funciona sem sessão nem limite de tentativas.
type Menu struct {
	users    domain.UserService
	sessions domain.SessionService
	in       *bufio.Scanner
	out      io.Writer
	logger   logger.Logger
}

// NewMenu cria o menu lendo de in e escrevendo em out.
func NewMenu(users domain.UserService, sessions domain.SessionService, in io.Reader, out io.Writer, logger logger.Logger) *Menu {
	return &Menu{
		users:    users,
		sessions: sessions,
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   logger,
	}
}

// Run executa o laço do menu até a opção 0 ou o fim da entrada.
// Erros das operações são exibidos e o laço continua; só falhas de leitura encerram Run com erro.
func (m *Menu) Run(ctx context.Context) error {
	for {
		m.println(menuText)
		option, err := m.readInt("[!] Selecione uma opção: ")
		if err != nil {
			return m.endOfInput(err)
		}

		switch option {
		case 0:
			m.println("[!] Até logo")
			return nil
		case 1:
			err = m.register(ctx)
		case 2:
			m.listAll(ctx)
		case 3:
			err = m.findByID(ctx)
		case 4:
			err = m.findByEmail(ctx)
		case 5:
			err = m.update(ctx)
		case 6:
			err = m.changePassword(ctx)
		case 7:
			err = m.delete(ctx)
		case 8:
			err = m.authenticate(ctx)
		case 9:
			err = m.verifySession(ctx)
		default:
			m.println("[X] Opção inválida")
		}
		if err != nil {
			return m.endOfInput(err)
		}
		m.println("")
	}
}

func (m *Menu) endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		m.println("\n[!] Entrada encerrada.")
		return nil
	}
	return err
}

// --- Operações ---

func (m *Menu) register(ctx context.Context) error {
	m.println("\n--- REGISTRAR USUÁRIO ---")
	email, err := m.readText("[+] Email: ")
	if err != nil {
		return err
	}
	name, err := m.readText("[+] Nome: ")
	if err != nil {
		return err
	}
	password, err := m.readText("[+] Senha: ")
	if err != nil {
		return err
	}
	age, err := m.readOptionalInt("[+] Idade (ENTER para deixar em branco): ")
	if err != nil {
		return err
	}

	user, err := m.users.Register(ctx, email, name, password, age)
	if err != nil {
		m.reportError("Erro ao registrar", err)
		return nil
	}
	m.printf("[=] Usuário registrado: %s\n", user)
	return nil
}

func (m *Menu) listAll(ctx context.Context) {
	m.println("\n--- LISTA DE USUÁRIOS ---")
	users, err := m.users.ListAll(ctx)
	if err != nil {
		m.reportError("Erro ao listar", err)
		return
	}
	if len(users) == 0 {
		m.println("[?] Nenhum usuário cadastrado")
		return
	}
	for _, u := range users {
		m.println(u.String())
	}
}

func (m *Menu) findByID(ctx context.Context) error {
	m.println("\n--- BUSCAR POR ID ---")
	id, err := m.readInt64("[+] ID do usuário: ")
	if err != nil {
		return err
	}

	user, found, err := m.users.FindByID(ctx, id)
	m.printLookup(user, found, err)
	return nil
}

func (m *Menu) findByEmail(ctx context.Context) error {
	m.println("\n--- BUSCAR POR EMAIL ---")
	email, err := m.readText("[+] Email: ")
	if err != nil {
		return err
	}

	user, found, err := m.users.FindByEmail(ctx, email)
	m.printLookup(user, found, err)
	return nil
}

func (m *Menu) printLookup(user domain.User, found bool, err error) {
	switch {
	case err != nil:
		m.reportError("Erro na busca", err)
	case !found:
		m.println("[!] Usuário não encontrado")
	default:
		m.printf("[=] Encontrado: %s\n", user)
	}
}

func (m *Menu) update(ctx context.Context) error {
	m.println("\n--- ATUALIZAR USUÁRIO ---")
	id, err := m.readInt64("[+] ID do usuário a atualizar: ")
	if err != nil {
		return err
	}

	user, found, err := m.users.FindByID(ctx, id)
	if err != nil {
		m.reportError("Erro na busca", err)
		return nil
	}
	if !found {
		m.println("[!] Usuário não encontrado")
		return nil
	}
	m.printf("[?] Usuário atual: %s\n", user)

	name, err := m.readText("[+] Novo nome (ENTER para manter): ")
	if err != nil {
		return err
	}
	email, err := m.readText("[+] Novo email (ENTER para manter): ")
	if err != nil {
		return err
	}
	age, err := m.readOptionalInt("[+] Nova idade (ENTER para manter): ")
	if err != nil {
		return err
	}

	if strings.TrimSpace(name) != "" {
		user.Name = name
	}
	if strings.TrimSpace(email) != "" {
		user.Email = email
	}
	if age != nil {
		user.Age = age
	}

	updated, err := m.users.Update(ctx, user)
	if err != nil {
		m.reportError("Erro ao atualizar", err)
		return nil
	}
	m.printf("[=] Usuário atualizado: %s\n", updated)
	return nil
}

func (m *Menu) changePassword(ctx context.Context) error {
	m.println("\n--- ALTERAR SENHA ---")
	id, err := m.readInt64("[+] ID do usuário: ")
	if err != nil {
		return err
	}
	password, err := m.readText("[+] Nova senha: ")
	if err != nil {
		return err
	}

	if _, err := m.users.ChangePassword(ctx, id, password); err != nil {
		m.reportError("Erro", err)
		return nil
	}
	m.println("[=] Senha alterada com sucesso")
	m.revokeSession(ctx, id)
	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	m.println("\n--- EXCLUIR USUÁRIO ---")
	id, err := m.readInt64("[+] ID do usuário a excluir: ")
	if err != nil {
		return err
	}
	confirmation, err := m.readText("[?] Tem certeza? (s/n): ")
	if err != nil {
		return err
	}

	if !strings.EqualFold(strings.TrimSpace(confirmation), "s") {
		m.println("[!] Operação cancelada")
		return nil
	}

	deleted, err := m.users.Delete(ctx, id)
	if err != nil {
		m.reportError("Erro ao excluir", err)
		return nil
	}
	if !deleted {
		m.println("[?] Usuário não encontrado")
		return nil
	}
	m.println("[=] Usuário excluído")
	m.revokeSession(ctx, id)
	return nil
}

func (m *Menu) authenticate(ctx context.Context) error {
	m.println("\n--- AUTENTICAÇÃO ---")
	email, err := m.readText("[+] Email: ")
	if err != nil {
		return err
	}
	password, err := m.readText("[+] Senha: ")
	if err != nil {
		return err
	}

	if m.sessions != nil {
		allowed, err := m.sessions.AllowLogin(ctx, email)
		if err != nil {
			// Sem Redis o login segue sem limite de tentativas.
			m.logger.Warn("Limite de tentativas indisponível.", map[string]interface{}{"error": err.Error()})
		} else if !allowed {
			m.println("[X] Muitas tentativas falhas. Tente novamente mais tarde.")
			return nil
		}
	}

	user, ok, err := m.users.Authenticate(ctx, email, password)
	if err != nil {
		m.reportError("Erro ao autenticar", err)
		return nil
	}
	if !ok {
		m.println("[X] LOGIN FALHOU - Credenciais incorretas")
		if m.sessions != nil {
			if err := m.sessions.RecordFailure(ctx, email); err != nil {
				m.logger.Warn("Falha ao registrar tentativa de login.", map[string]interface{}{"error": err.Error()})
			}
		}
		return nil
	}

	m.println("[OK] LOGIN BEM-SUCEDIDO")
	m.printf("[OK] Bem-vindo(a), %s\n", user.Name)

	if m.sessions == nil {
		return nil
	}
	if err := m.sessions.ResetFailures(ctx, email); err != nil {
		m.logger.Warn("Falha ao zerar tentativas de login.", map[string]interface{}{"error": err.Error()})
	}
	token, err := m.sessions.Start(ctx, user)
	if err != nil {
		m.reportError("Sessão não iniciada", err)
		return nil
	}
	m.printf("[OK] Token de sessão: %s\n", token)
	return nil
}

func (m *Menu) verifySession(ctx context.Context) error {
	m.println("\n--- VERIFICAR SESSÃO ---")
	if m.sessions == nil {
		m.println("[!] Sessões indisponíveis (desativadas ou Redis inacessível).")
		return nil
	}

	token, err := m.readText("[+] Token: ")
	if err != nil {
		return err
	}

	userID, err := m.sessions.Validate(ctx, strings.TrimSpace(token))
	if err != nil {
		m.reportError("Sessão inválida", err)
		return nil
	}

	user, found, err := m.users.FindByID(ctx, userID)
	switch {
	case err != nil:
		m.reportError("Erro na busca", err)
	case !found:
		m.println("[!] Sessão válida, mas o usuário não existe mais")
	default:
		m.printf("[OK] Sessão válida para: %s\n", user)
	}
	return nil
}

func (m *Menu) revokeSession(ctx context.Context, userID int64) {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Revoke(ctx, userID); err != nil {
		m.logger.Warn("Falha ao revogar sessão.", map[string]interface{}{"user_id": userID, "error": err.Error()})
	}
}

// --- Entrada e saída ---

func (m *Menu) reportError(prefix string, err error) {
	category, msg := apperror.Describe(err)
	m.printf("[!] %s [%s]: %s\n", prefix, category, msg)
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) printf(format string, args ...interface{}) {
	fmt.Fprintf(m.out, format, args...)
}

// readText devolve a próxima linha sem o terminador; io.EOF no fim da entrada.
func (m *Menu) readText(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(m.in.Text(), "\r"), nil
}

func (m *Menu) readInt(prompt string) (int, error) {
	n, err := m.readNumber(prompt, 32)
	return int(n), err
}

func (m *Menu) readInt64(prompt string) (int64, error) {
	return m.readNumber(prompt, 64)
}

// readNumber repete a pergunta até receber um inteiro válido.
func (m *Menu) readNumber(prompt string, bitSize int) (int64, error) {
	for {
		line, err := m.readText(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, bitSize)
		if err == nil {
			return n, nil
		}
		prompt = "[+] Digite um número válido: "
	}
}

// readOptionalInt devolve nil para linha em branco.
func (m *Menu) readOptionalInt(prompt string) (*int, error) {
	for {
		line, err := m.readText(prompt)
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(line, 10, 32)
		if err == nil {
			return domain.IntPtr(int(n)), nil
		}
		prompt = "[+] Digite um número válido (ou ENTER): "
	}
}
