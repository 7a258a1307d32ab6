package email

import (
	"bytes"
	"html/template"
)

var credentialsTmpl = template.Must(template.New("gameCredentials").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">
    <h2 style="color: #333; text-align: center;">Your Game Credentials</h2>
    <p>Hello {{.Username}},</p>
    <p>Your game account has been activated! Here are your login credentials for {{.GameName}}:</p>
    <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
        <p><strong>Game:</strong> {{.GameName}}</p>
        <p><strong>Game ID:</strong> {{.GameID}}</p>
        {{if .GamePassword}}<p><strong>Password:</strong> {{.GamePassword}}</p>{{end}}
    </div>
    <p>Keep these credentials safe and do not share them with anyone.</p>
    <p>Happy gaming!</p>
    <p>Best regards,<br>The BigWin Gaming Team</p>
</div>
`))

type CredentialsData struct {
	Username     string
	GameName     string
	GameID       string
	GamePassword string
}

func GenerateGameCredentialsEmail(data CredentialsData) (string, error) {
	if data.Username == "" {
		data.Username = "User"
	}
	var buf bytes.Buffer
	if err := credentialsTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
