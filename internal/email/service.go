package email

import (
	"fmt"
	"net/smtp"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
	send sendFunc
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
		send: smtp.SendMail,
	}
}

// SendSaleNotice tells the owner that a sale was recorded
func (s *Service) SendSaleNotice(to string, n SaleNotice) error {
	subject := fmt.Sprintf("Sold: %s ($%s)", n.ItemName, formatMoney(n.SalePrice))
	return s.deliver(to, subject, BuildSaleBody(n))
}

// SendSoldOutAlert tells the owner an item has no stock left
func (s *Service) SendSoldOutAlert(to, itemName string) error {
	subject := fmt.Sprintf("Sold out: %s", itemName)
	return s.deliver(to, subject, BuildSoldOutBody(itemName))
}

func (s *Service) deliver(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return s.send(addr, nil, s.from, []string{to}, []byte(msg))
}
