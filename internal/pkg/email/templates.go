// internal/pkg/email/templates.go
package email

const baseHeader = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #faf7f2;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 24px; border-radius: 8px;">
        <h1 style="color: #1a1a1a; letter-spacing: 2px;">{{.SiteName}}</h1>`

const baseFooter = `
        <p>À bientôt,<br>L'équipe {{.SiteName}}</p>
        <hr style="border: none; border-top: 1px solid #eee;">
        <p style="font-size: 12px; color: #999;">
            © {{.Year}} {{.SiteName}}. Tous droits réservés.
        </p>
    </div>
</body>
</html>`

var templateSources = map[string]string{
	"welcome": baseHeader + `
        <p>Bonjour {{.UserName}},</p>
        <p>Bienvenue chez {{.SiteName}} ! Votre compte a bien été créé.</p>
        <p>Pour activer votre compte, confirmez votre adresse email :</p>
        <p style="margin: 24px 0;">
            <a href="{{.VerificationURL}}" style="background-color: #1a1a1a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Confirmer mon email</a>
        </p>` + baseFooter,

	"email_verification": baseHeader + `
        <p>Bonjour {{.UserName}},</p>
        <p>Confirmez votre adresse email en cliquant sur le lien ci-dessous :</p>
        <p style="margin: 24px 0;">
            <a href="{{.VerificationURL}}" style="background-color: #1a1a1a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Confirmer mon email</a>
        </p>
        <p style="font-size: 13px; color: #666;">Ce lien expire dans {{.ExpiryTime}}.</p>` + baseFooter,

	"password_reset": baseHeader + `
        <p>Bonjour {{.UserName}},</p>
        <p>Vous avez demandé la réinitialisation de votre mot de passe.</p>
        <p style="margin: 24px 0;">
            <a href="{{.ResetURL}}" style="background-color: #1a1a1a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Réinitialiser mon mot de passe</a>
        </p>
        <p style="font-size: 13px; color: #666;">Ce lien expire dans {{.ExpiryTime}}. Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>` + baseFooter,

	"order_confirmation": baseHeader + `
        <p>Bonjour {{.UserName}},</p>
        <p>Merci pour votre commande <strong>{{.OrderNumber}}</strong> du {{.OrderDate}}.</p>
        <table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
            <tr style="border-bottom: 1px solid #eee; text-align: left;">
                <th style="padding: 8px 0;">Article</th>
                <th>Taille</th>
                <th>Qté</th>
                <th style="text-align: right;">Prix</th>
            </tr>
            {{range .Items}}
            <tr style="border-bottom: 1px solid #f5f5f5;">
                <td style="padding: 8px 0;">{{.Name}}</td>
                <td>{{.Size}}</td>
                <td>{{.Quantity}}</td>
                <td style="text-align: right;">{{.Price}}</td>
            </tr>
            {{end}}
        </table>
        <p style="text-align: right; font-size: 16px;"><strong>Total : {{.OrderTotal}}</strong></p>
        <p style="margin: 24px 0;">
            <a href="{{.OrderURL}}" style="background-color: #1a1a1a; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Suivre ma commande</a>
        </p>` + baseFooter,
}
